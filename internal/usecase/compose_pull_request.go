package usecase

import (
	"fmt"
	"strings"

	"github.com/compozy/releasesync/internal/domain"
)

// defaultRebuildLabel names the dependency-refresh workflow in backport checklists when no
// backport label is configured.
const defaultRebuildLabel = "Rebuild"

// ComposeRequest carries everything the pull request description is built from.
type ComposeRequest struct {
	Attribution     *domain.Attribution
	BranchName      string
	SourceBranch    string
	TargetBranch    string
	SourceShortSHA  string
	Conductor       string
	Kind            domain.ReleaseKind
	ConflictedFiles []string
	ManifestPath    string
}

// ComposePullRequestUseCase renders the release pull request.
type ComposePullRequestUseCase struct {
	TitleTemplate string
	// BackportLabel is applied to backports and named in their checklist. Empty means no
	// label is applied.
	BackportLabel string
}

// Execute runs the use case. The body sections always appear in the same order: summary,
// conductor, pull requests, unattributed commits, checklist.
func (uc *ComposePullRequestUseCase) Execute(req ComposeRequest) (*domain.PullRequestDraft, error) {
	if req.Attribution == nil {
		return nil, fmt.Errorf("attribution cannot be nil")
	}
	if req.Kind == nil {
		return nil, fmt.Errorf("release kind cannot be nil")
	}
	if req.Conductor == "" {
		return nil, fmt.Errorf("conductor cannot be empty")
	}
	primary := domain.IsPrimary(req.Kind)
	var body []string
	body = append(body,
		fmt.Sprintf("Merging %s into `%s`.", req.SourceShortSHA, req.TargetBranch),
		"",
		fmt.Sprintf("Conductor for this PR is @%s.", req.Conductor),
	)
	if prs := req.Attribution.ChangeRequests; len(prs) > 0 {
		body = append(body, "", "Contains the following pull requests:")
		for _, pr := range prs {
			body = append(body, fmt.Sprintf("- #%d%s", pr.Number, mention(pr.Merger)))
		}
	}
	if commits := req.Attribution.Unattributed; len(commits) > 0 {
		body = append(body, "", "Contains the following commits not from a pull request:")
		for _, c := range commits {
			body = append(body, fmt.Sprintf("- %s - %s%s", c.SHA, domain.TruncateMessage(c.Message), mention(c.Author)))
		}
	}
	body = append(body, "", "Please do the following:")
	body = append(body, uc.checklist(req, primary)...)
	draft := &domain.PullRequestDraft{
		Title:     uc.title(req),
		Body:      strings.Join(body, "\n"),
		Head:      req.BranchName,
		Base:      req.TargetBranch,
		Draft:     true,
		Assignees: []string{req.Conductor},
	}
	if !primary && uc.BackportLabel != "" {
		draft.Labels = []string{uc.BackportLabel}
	}
	return draft, nil
}

func (uc *ComposePullRequestUseCase) checklist(req ComposeRequest, primary bool) []string {
	var items []string
	if len(req.ConflictedFiles) > 0 {
		manifest := req.ManifestPath
		if manifest == "" {
			manifest = "package.json"
		}
		items = append(items,
			fmt.Sprintf(" - [ ] Ensure `%s` file contains the correct version.", manifest),
			" - [ ] Add commits to this branch to resolve the merge conflicts in the following files:",
		)
		for _, file := range req.ConflictedFiles {
			items = append(items, fmt.Sprintf("    - [ ] `%s`", file))
		}
		items = append(items, " - [ ] Ensure another maintainer has reviewed the additional commits you added to "+
			"this branch to resolve the merge conflicts.")
	}
	items = append(items,
		" - [ ] Ensure the CHANGELOG displays the correct version and date.",
		" - [ ] Ensure the CHANGELOG includes all relevant, user-facing changes since the last release.",
		fmt.Sprintf(" - [ ] Check that there are not any unexpected commits being merged into the `%s` branch.",
			req.TargetBranch),
		" - [ ] Ensure the docs team is aware of any documentation changes that need to be released.",
	)
	if !primary {
		label := uc.BackportLabel
		if label == "" {
			label = defaultRebuildLabel
		}
		items = append(items,
			fmt.Sprintf(" - [ ] Remove and re-add the %q label to the PR to trigger just this workflow.", label),
			fmt.Sprintf(" - [ ] Wait for the %q workflow to push a commit updating the distribution files.", label),
		)
	}
	items = append(items,
		" - [ ] Mark the PR as ready for review to trigger the full set of PR checks.",
		" - [ ] Approve and merge this PR. Make sure `Create a merge commit` is selected rather than "+
			"`Squash and merge` or `Rebase and merge`.",
	)
	if primary {
		items = append(items,
			" - [ ] Merge the mergeback PR that will automatically be created once this PR is merged.",
			" - [ ] Merge all backport PRs to older release branches, that will automatically be created "+
				"once this PR is merged.",
		)
	}
	return items
}

func (uc *ComposePullRequestUseCase) title(req ComposeRequest) string {
	tpl := uc.TitleTemplate
	if tpl == "" {
		tpl = DefaultTitleTemplate
	}
	return renderTemplate(tpl, map[string]interface{}{
		"source": req.SourceBranch,
		"target": req.TargetBranch,
		"branch": req.BranchName,
		"kind":   req.Kind.String(),
	})
}

func mention(id *domain.Identity) string {
	if id == nil || id.Login == "" {
		return ""
	}
	return fmt.Sprintf(" (@%s)", id.Login)
}
