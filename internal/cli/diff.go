package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chainguard-dev/malcontent-action/internal/comment"
	"github.com/chainguard-dev/malcontent-action/internal/github"
	"github.com/chainguard-dev/malcontent-action/internal/gitx"
	"github.com/chainguard-dev/malcontent-action/internal/render"
	"github.com/chainguard-dev/malcontent-action/internal/risk"
	"github.com/chainguard-dev/malcontent-action/internal/sarif"
	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

func NewDiffCmd() *cobra.Command {
	var repoDir string
	var prRef string
	var payloadPath string
	var sarifPath string
	var markdownPath string
	var failOnIncrease bool
	var postComment bool

	cmd := &cobra.Command{
		Use:   "diff [before-ref] [after-ref]",
		Short: "Scan two revisions and report the behavioral risk delta",
		Long: "Extracts the trees at two revisions, runs the scanner in diff mode,\n" +
			"and renders the result as a summary, a SARIF report, and an optional\n" +
			"pull-request comment. Refs may be omitted when --pr is given; the PR's\n" +
			"base and head are used.",
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if !cmd.Flags().Changed("fail-on-increase") {
				failOnIncrease = app.RepoConfig.Report.FailOnIncrease
			}

			var repo string
			var prNumber int
			if prRef != "" {
				repo, prNumber, err = github.ParsePR(prRef)
				if err != nil {
					return err
				}
			}

			// Refs are only needed when the scanner actually runs; a saved
			// payload already embeds what was compared.
			var beforeRef, afterRef string
			if payloadPath == "" {
				beforeRef, afterRef, err = resolveRefs(ctx, app, args, repo, prNumber)
				if err != nil {
					return err
				}
			}

			payload, err := obtainPayload(ctx, app, repoDir, beforeRef, afterRef, payloadPath)
			if err != nil {
				return err
			}

			d := scan.Normalize(payload)
			minLevel := risk.ParseLevel(app.RepoConfig.Report.MinLevel)
			app.Log.Infow("scan complete",
				"added", len(d.Added), "removed", len(d.Removed), "modified", len(d.Modified),
				"delta", d.TotalRiskDelta, "increased", d.RiskIncreased)

			// All artifacts are produced before any failure exit: a risk
			// increase must never suppress the report explaining it.
			extended := render.Summary(d, render.Options{Extended: true, MinLevel: minLevel})
			fmt.Fprintln(out, render.TerminalVerdict(d)+strings.TrimPrefix(extended, render.Verdict(d)))
			if markdownPath == "" {
				markdownPath = app.RepoConfig.Output.Markdown
			}
			if markdownPath != "" {
				if err := writeFile(markdownPath, extended+"\n"); err != nil {
					return err
				}
			}
			if err := appendEnvFile("GITHUB_STEP_SUMMARY", extended+"\n"); err != nil {
				return err
			}

			if sarifPath == "" {
				sarifPath = app.RepoConfig.Output.SARIF
			}
			if sarifPath != "" {
				rev := afterRef
				if rev == "" {
					rev = "HEAD"
				}
				revision, err := gitx.ResolveRef(ctx, app.Exec, repoDir, rev)
				if err != nil {
					return err
				}
				doc := sarif.Build(d, sarif.Options{
					ToolVersion: app.Scanner.Version(ctx),
					Revision:    revision,
					RepoURL:     gitx.RemoteURL(ctx, app.Exec, repoDir),
				})
				if err := sarif.Write(doc, sarifPath); err != nil {
					return err
				}
				app.Log.Infow("sarif written", "path", sarifPath)
			}

			if prRef != "" && postComment && app.Config.Comment.Post {
				if err := reconcileComment(ctx, app, repo, prNumber, d, minLevel); err != nil {
					return err
				}
			}

			outputs := fmt.Sprintf("risk-delta=%d\nrisk-increased=%t\n", d.TotalRiskDelta, d.RiskIncreased)
			if err := appendEnvFile("GITHUB_OUTPUT", outputs); err != nil {
				return err
			}

			if failOnIncrease && d.RiskIncreased {
				return fmt.Errorf("risk increased by %d", d.TotalRiskDelta)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo-dir", ".", "Repository to scan")
	cmd.Flags().StringVar(&prRef, "pr", "", "Pull request (OWNER/REPO#123 or URL) for comment reconciliation")
	cmd.Flags().StringVar(&payloadPath, "payload", "", "Reuse a saved scanner payload instead of running the scanner")
	cmd.Flags().StringVar(&sarifPath, "sarif", "", "Write a SARIF report to this path")
	cmd.Flags().StringVar(&markdownPath, "markdown", "", "Write the extended markdown report to this path")
	cmd.Flags().BoolVar(&failOnIncrease, "fail-on-increase", false, "Exit nonzero when risk increased")
	cmd.Flags().BoolVar(&postComment, "post-comment", true, "Create or update the PR comment (requires --pr)")
	return cmd
}

// resolveRefs picks the before/after refs from args, falling back to the
// PR's base and head when refs are omitted.
func resolveRefs(ctx context.Context, app *App, args []string, repo string, prNumber int) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	if repo == "" {
		return "", "", fmt.Errorf("provide <before-ref> <after-ref>, or --pr to use the PR's base and head")
	}
	view, err := app.GH.PRView(ctx, repo, prNumber)
	if err != nil {
		return "", "", err
	}
	return view.BaseRefOid, view.HeadRefOid, nil
}

// obtainPayload runs the scanner over the two extracted trees, or reads a
// saved payload when one was supplied.
func obtainPayload(ctx context.Context, app *App, repoDir, beforeRef, afterRef, payloadPath string) ([]byte, error) {
	if payloadPath != "" {
		payload, err := os.ReadFile(payloadPath)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return payload, nil
	}

	tmp, err := os.MkdirTemp("", "malcontent-action-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	beforeDir := filepath.Join(tmp, "mal-before")
	afterDir := filepath.Join(tmp, "mal-after")

	cleanupBefore, err := gitx.ExtractTree(ctx, app.Exec, repoDir, beforeRef, beforeDir)
	if err != nil {
		return nil, err
	}
	defer cleanupBefore()

	cleanupAfter, err := gitx.ExtractTree(ctx, app.Exec, repoDir, afterRef, afterDir)
	if err != nil {
		return nil, err
	}
	defer cleanupAfter()

	return app.Scanner.Diff(ctx, beforeDir, afterDir)
}

func reconcileComment(ctx context.Context, app *App, repo string, number int, d scan.DiffResult, minLevel risk.Level) error {
	comments, err := app.GH.ListComments(ctx, repo, number)
	if err != nil {
		return err
	}
	prior := comment.FindMarked(comments)
	body := render.CommentBody(d, render.Options{
		MinLevel: minLevel,
		MaxChars: app.Config.Comment.MaxChars,
	})
	action := comment.Reconcile(prior, d, body, render.ResolvedBody())
	if err := app.GH.ApplyCommentAction(ctx, repo, number, action); err != nil {
		return err
	}
	switch action.Kind {
	case comment.ActionCreate:
		app.Log.Infow("comment created", "pr", fmt.Sprintf("%s#%d", repo, number))
	case comment.ActionUpdate:
		app.Log.Infow("comment updated", "pr", fmt.Sprintf("%s#%d", repo, number), "id", action.CommentID)
	default:
		app.Log.Infow("no comment needed", "pr", fmt.Sprintf("%s#%d", repo, number))
	}
	return nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// appendEnvFile appends to the file named by a GitHub Actions environment
// variable (GITHUB_OUTPUT, GITHUB_STEP_SUMMARY). A no-op outside Actions.
func appendEnvFile(envName, content string) error {
	path := os.Getenv(envName)
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", envName, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("append %s: %w", envName, err)
	}
	return nil
}
