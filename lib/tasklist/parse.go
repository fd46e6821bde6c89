// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"regexp"
	"strings"
)

// Task is one checkbox line of an issue body.
type Task struct {
	Checked bool
	Text    string
}

var taskLinePattern = regexp.MustCompile(`^- \[(.)\] (.*)$`)

// ParseTasks returns the tasks of body in line order. Only lines that
// start with "- [<one character>] " count; the task is checked when
// that character is a lowercase "x". CRLF line endings are accepted.
func ParseTasks(body string) []Task {
	var tasks []Task
	for _, line := range strings.Split(body, "\n") {
		match := taskLinePattern.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
		if match == nil {
			continue
		}
		tasks = append(tasks, Task{Checked: match[1] == "x", Text: match[2]})
	}
	return tasks
}
