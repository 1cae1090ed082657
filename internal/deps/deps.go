package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external tool a build shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a Requirement after lookup. Path is the resolved executable and
// stays empty when the tool could not be found.
type Status struct {
	Requirement
	Path   string
	Detail string
}

// Available reports whether the tool was found.
func (s Status) Available() bool { return s.Path != "" }

// CheckBinaries resolves every requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		statuses[i] = lookup(req)
	}
	return statuses
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("%q is not on PATH or not executable", req.Command)
		return status
	}
	status.Path = path
	return status
}
