// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"context"
	"fmt"
	"strings"
)

// fakeClient is an in-memory RepositoryClient that records lookups.
type fakeClient struct {
	repositories map[string]*fakeRepository
	lookups      []string
	err          error
}

func newFakeClient(repositories ...*fakeRepository) *fakeClient {
	client := &fakeClient{repositories: make(map[string]*fakeRepository)}
	for _, repository := range repositories {
		client.add(repository.fullName, repository)
	}
	return client
}

// add registers repository under an extra lookup key, mimicking a
// tracker that accepts more than one spelling of a name.
func (client *fakeClient) add(key string, repository *fakeRepository) {
	client.repositories[key] = repository
}

func (client *fakeClient) GetRepository(_ context.Context, fullName string) (Repository, error) {
	client.lookups = append(client.lookups, fullName)
	if client.err != nil {
		return nil, client.err
	}
	repository, ok := client.repositories[fullName]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", fullName, ErrNotFound)
	}
	return repository, nil
}

// fakeRepository holds issues in memory and numbers new ones after the
// highest existing number.
type fakeRepository struct {
	fullName string
	issues   map[int]*fakeIssue
	created  []string
	fetched  []int
	err      error
}

func newFakeRepository(fullName string) *fakeRepository {
	return &fakeRepository{fullName: fullName, issues: make(map[int]*fakeIssue)}
}

func (repository *fakeRepository) FullName() string { return repository.fullName }

func (repository *fakeRepository) OwnerLogin() string {
	owner, _, _ := strings.Cut(repository.fullName, "/")
	return owner
}

func (repository *fakeRepository) addIssue(number int, title string, state State) *fakeIssue {
	issue := &fakeIssue{repository: repository, number: number, title: title, state: state}
	repository.issues[number] = issue
	return issue
}

func (repository *fakeRepository) GetIssue(_ context.Context, number int) (Issue, error) {
	repository.fetched = append(repository.fetched, number)
	issue, ok := repository.issues[number]
	if !ok {
		return nil, fmt.Errorf("issue %s#%d: %w", repository.fullName, number, ErrNotFound)
	}
	return issue, nil
}

func (repository *fakeRepository) CreateIssue(_ context.Context, title string) (Issue, error) {
	if repository.err != nil {
		return nil, repository.err
	}
	repository.created = append(repository.created, title)
	next := 1
	for number := range repository.issues {
		if number >= next {
			next = number + 1
		}
	}
	return repository.addIssue(next, title, StateOpen), nil
}

type fakeIssue struct {
	repository *fakeRepository
	number     int
	title      string
	body       string
	state      State
	bodyEdits  []string
	stateEdits []State
	err        error
}

func (issue *fakeIssue) Repository() Repository { return issue.repository }
func (issue *fakeIssue) Number() int            { return issue.number }
func (issue *fakeIssue) Title() string          { return issue.title }
func (issue *fakeIssue) Body() string           { return issue.body }
func (issue *fakeIssue) State() State           { return issue.state }

func (issue *fakeIssue) EditBody(_ context.Context, body string) error {
	if issue.err != nil {
		return issue.err
	}
	issue.bodyEdits = append(issue.bodyEdits, body)
	issue.body = body
	return nil
}

func (issue *fakeIssue) EditState(_ context.Context, state State) error {
	if issue.err != nil {
		return issue.err
	}
	issue.stateEdits = append(issue.stateEdits, state)
	issue.state = state
	return nil
}
