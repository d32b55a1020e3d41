package gcp

import (
	"context"
	"sort"

	"google.golang.org/api/cloudresourcemanager/v1"
)

// ListActiveProjects returns the IDs of every ACTIVE project visible to
// the caller, sorted. Used to expand a fleet-wide scan; the orchestrator
// itself only ever sees the pre-resolved scope set.
func (c *Clients) ListActiveProjects(ctx context.Context) ([]string, error) {
	var projects []string

	call := c.CRM.Projects.List().Filter("lifecycleState:ACTIVE")
	err := call.Pages(ctx, func(page *cloudresourcemanager.ListProjectsResponse) error {
		for _, project := range page.Projects {
			projects = append(projects, project.ProjectId)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	sort.Strings(projects)
	return projects, nil
}
