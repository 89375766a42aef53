package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amirhosseinghanipour/scaffold/internal/client/syncclient"
	"github.com/amirhosseinghanipour/scaffold/internal/domain/filetree"
)

func (a *app) newCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "new <prompt...>",
		Short: "Create a project from its first prompt and wait for the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, msg, err := a.client().CreateProject(cmd.Context(), joinArgs(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Project %s (%s)\n", p.Name, p.ID)
			a.cfg.ProjectID = p.ID
			if err := SaveConfig(a.cfg, a.cfgFile); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: could not save project id: %v\n", err)
			}
			if noWatch {
				fmt.Fprintf(out, "  message %s queued\n", msg.ID)
				return nil
			}
			sc := a.syncClient(cmd, p.ID)
			sc.Track(msg.ID)
			return a.await(cmd.Context(), out, sc)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "return once the request is admitted")
	return cmd
}

func (a *app) sendCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "send <prompt...>",
		Short: "Send a follow-up prompt to a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := a.projectID(cmd)
			if err != nil {
				return err
			}
			sc := a.syncClient(cmd, projectID)
			// Load history first so only replies to this prompt count as new.
			if _, err := sc.Refresh(cmd.Context()); err != nil {
				return err
			}
			sc.SetInput(joinArgs(args))
			s, err := sc.Submit(cmd.Context())
			if err != nil {
				if s.Rejection != nil && s.Rejection.Redirect != syncclient.RedirectNone {
					fmt.Fprintf(cmd.ErrOrStderr(), "→ %s\n", s.Rejection.Redirect)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Accepted (message %s)\n", s.PendingMessageID)
			if noWatch {
				return nil
			}
			return a.await(cmd.Context(), out, sc)
		},
	}
	addProjectFlag(cmd)
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "return once the request is admitted")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Wait for the project's pending prompt, then show the latest result",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := a.projectID(cmd)
			if err != nil {
				return err
			}
			sc := a.syncClient(cmd, projectID)
			s, err := sc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if !sc.ResumePending() {
				printState(cmd.OutOrStdout(), s)
				return nil
			}
			return a.await(cmd.Context(), cmd.OutOrStdout(), sc)
		},
	}
	addProjectFlag(cmd)
	return cmd
}

func (a *app) await(ctx context.Context, out io.Writer, sc *syncclient.Client) error {
	fmt.Fprintln(out, "… waiting for the agent")
	s, err := sc.Watch(ctx)
	if err != nil {
		return err
	}
	printState(out, s)
	if s.Phase == syncclient.PhaseStuck {
		return errors.New("no reply yet; run `scaffoldctl watch` later")
	}
	return nil
}

func printState(w io.Writer, s syncclient.State) {
	if s.WorkerError != "" {
		fmt.Fprintf(w, "✗ %s\n", s.WorkerError)
	}
	f := s.ActiveFragment
	if f == nil {
		if s.WorkerError == "" {
			fmt.Fprintln(w, "No fragment yet")
		}
		return
	}
	if s.WorkerError == "" {
		for i := len(s.Messages) - 1; i >= 0; i-- {
			if m := s.Messages[i]; m.IsAssistant() && m.Fragment != nil && m.Fragment.ID == f.ID {
				fmt.Fprintln(w, m.Content)
				break
			}
		}
	}
	fmt.Fprintf(w, "Fragment: %s (%s)\n", f.Title, f.ID)
	if f.SandboxURL != "" {
		fmt.Fprintf(w, "Preview:  %s\n", f.SandboxURL)
	}
	renderText(w, s.Tree())
}

func (a *app) treeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the file tree of the active fragment",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadState(cmd)
			if err != nil {
				return err
			}
			root := s.Tree()
			if root == nil {
				return errors.New("project has no fragment yet")
			}
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				renderText(out, root)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(root.TreeItems()); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(root.TreeItems())
			default:
				return fmt.Errorf("unknown format %q (use text, yaml or json)", format)
			}
			return nil
		},
	}
	addProjectFlag(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "text, yaml or json")
	return cmd
}

func (a *app) catCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat [path]",
		Short: "Print a file from the active fragment (default: the first file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadState(cmd)
			if err != nil {
				return err
			}
			if s.ActiveFragment == nil {
				return errors.New("project has no fragment yet")
			}
			files := s.ActiveFragment.Files
			p := filetree.DefaultSelection(files)
			if len(args) == 1 {
				p = args[0]
			}
			node := s.Tree().Find(p)
			if node == nil || node.IsDir {
				return fmt.Errorf("no file %q in fragment", p)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "── %s [%s]\n", strings.Join(filetree.Breadcrumb(node.Path, filetree.MaxBreadcrumbSegments), " › "), filetree.Language(node.Path))
			content, ok := files[node.Path]
			if !ok {
				// stored under a non-canonical path such as "/src//a.ts"
				for k, v := range files {
					if strings.Join(filetree.Segments(k), filetree.Separator) == node.Path {
						content = v
						break
					}
				}
			}
			fmt.Fprint(out, content)
			if !strings.HasSuffix(content, "\n") {
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	addProjectFlag(cmd)
	return cmd
}

func (a *app) loadState(cmd *cobra.Command) (syncclient.State, error) {
	projectID, err := a.projectID(cmd)
	if err != nil {
		return syncclient.State{}, err
	}
	return a.syncClient(cmd, projectID).Refresh(cmd.Context())
}

func renderText(w io.Writer, root *filetree.Node) {
	if root == nil {
		return
	}
	root.Walk(func(n *filetree.Node, depth int) {
		if depth == 0 {
			return
		}
		name := n.Name
		if n.IsDir {
			name += "/"
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth-1), name)
	})
}
