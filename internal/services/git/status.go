package git

import "strings"

// Status groups changed paths the way the source control panel shows them
type Status struct {
	Staged    []string `json:"staged"`
	Modified  []string `json:"modified"`
	Untracked []string `json:"untracked"`
}

func newStatus() Status {
	return Status{
		Staged:    []string{},
		Modified:  []string{},
		Untracked: []string{},
	}
}

// ParsePorcelain reads `git status --porcelain` output. Columns one and two
// are the index and worktree states and the path starts at column four.
// Index additions and modifications count as staged; a path modified only in
// the worktree counts as modified.
func ParsePorcelain(output string) Status {
	status := newStatus()

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 2 {
			continue
		}

		index, worktree := line[0], line[1]
		file := ""
		if len(line) > 3 {
			file = line[3:]
		}

		switch {
		case index == '?' && worktree == '?':
			status.Untracked = append(status.Untracked, file)
		case index == 'A' || index == 'M':
			status.Staged = append(status.Staged, file)
		case index == ' ' && worktree == 'M':
			status.Modified = append(status.Modified, file)
		}
	}

	return status
}
