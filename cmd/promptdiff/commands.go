package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/promptdiff/promptdiff/changelog"
	"github.com/promptdiff/promptdiff/diff"
	"github.com/promptdiff/promptdiff/eval"
	"github.com/promptdiff/promptdiff/registry"
	"github.com/promptdiff/promptdiff/store"
)

func initApp() *cli.Command {
	app := &cli.Command{
		Name:  "promptdiff",
		Usage: "Git-style version control for LLM prompts",
	}

	app.Commands = append(app.Commands,
		initCommand(),
		addCommand(),
		diffCommand(),
		logCommand(),
		listCommand(),
		changelogCommand(),
		evalCommand(),
		tagCommand(),
		deleteCommand(),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}

func openStore() *store.FileStore {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return store.NewFileStore(wd)
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new promptdiff repository",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			st := openStore()
			if st.Initialized(ctx) {
				fmt.Println("Already initialized.")
				return nil
			}
			if err := st.Init(ctx); err != nil {
				return err
			}
			fmt.Printf("Initialized promptdiff in %s\n", st.Root())
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a new prompt version",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "version message"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read prompt from file"},
			&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "tags for the prompt"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			if name == "" {
				return fmt.Errorf("prompt name is required")
			}
			content, err := readContent(cmd.String("file"))
			if err != nil {
				return err
			}
			st := openStore()
			v, err := st.Add(ctx, name, content, cmd.String("message"), nil)
			if err != nil {
				return err
			}
			if tags := cmd.StringSlice("tag"); len(tags) > 0 {
				if err := st.SetTags(ctx, name, tags); err != nil {
					return err
				}
			}
			fmt.Printf("Added %s v%d [%s]\n", name, v.Version, v.ContentHash)
			return nil
		},
	}
}

// readContent loads the new version's content from a file or stdin. Content
// that is empty after trimming is rejected.
func readContent(path string) (string, error) {
	var raw []byte
	var err error
	if path != "" {
		raw, err = os.ReadFile(path)
	} else {
		if fi, statErr := os.Stdin.Stat(); statErr == nil && fi.Mode()&os.ModeCharDevice != 0 {
			fmt.Println("Enter prompt content (Ctrl+D to finish):")
		}
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return "", fmt.Errorf("read prompt content: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", fmt.Errorf("empty prompt content")
	}
	return string(raw), nil
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Show diff between two prompt versions",
		ArgsUsage: "<name> <v1> <v2>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			v1, err := parseVersion(cmd.Args().Get(1))
			if err != nil {
				return err
			}
			v2, err := parseVersion(cmd.Args().Get(2))
			if err != nil {
				return err
			}
			st := openStore()
			oldV, err := st.GetVersion(ctx, name, v1)
			if err != nil {
				return err
			}
			newV, err := st.GetVersion(ctx, name, v2)
			if err != nil {
				return err
			}
			result := diff.NewEngine().FullDiff(oldV.Content, newV.Content, v1, v2)
			renderDiff(os.Stdout, name, result)
			return nil
		},
	}
}

func parseVersion(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("two version numbers are required")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

func logCommand() *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Show version history for a prompt",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			st := openStore()
			versions, err := st.ListVersions(ctx, name)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Printf("No versions found for '%s'\n", name)
				return nil
			}
			renderLog(os.Stdout, name, versions)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all tracked prompts",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			st := openStore()
			reg := registry.New(st)
			summaries, err := reg.ListAll(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No prompts tracked yet.")
				return nil
			}
			renderList(os.Stdout, summaries)
			return nil
		},
	}
}

func changelogCommand() *cli.Command {
	return &cli.Command{
		Name:      "changelog",
		Usage:     "Generate changelog for a prompt",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "last", Aliases: []string{"n"}, Usage: "only last N versions"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			gen := changelog.NewGenerator(openStore())
			out, err := gen.Generate(ctx, name, cmd.Int("last"))
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func evalCommand() *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "Evaluate a prompt version (demo: self-test mode)",
		ArgsUsage: "<name> <version>",
		Description: "Evaluates the prompt against itself, so it will always score " +
			"~100%. For real evaluation, use the library API with custom test cases " +
			"and an LLM runner.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			version, err := parseEvalVersion(cmd.Args().Get(1))
			if err != nil {
				return err
			}
			st := openStore()
			v, err := st.GetVersion(ctx, name, version)
			if err != nil {
				return err
			}
			evaluator := eval.NewEvaluator()
			cases := []eval.TestCase{
				{Name: "basic_format", InputVars: map[string]any{}, Expected: v.Content, Weight: 1.0},
			}
			result, err := evaluator.Evaluate(ctx, name, version, v.Content, cases)
			if err != nil {
				return err
			}
			fmt.Printf("\nEval: %s v%d\n", name, version)
			fmt.Printf("Mean score: %.1f%%\n", result.MeanScore()*100)
			passed := "No"
			if result.Passed() {
				passed = "Yes"
			}
			fmt.Printf("Passed: %s\n", passed)
			return nil
		},
	}
}

func parseEvalVersion(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("version number is required")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Set tags on a prompt",
		ArgsUsage: "<name> <tag>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "add", Usage: "merge with existing tags instead of replacing"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			tags := cmd.Args().Slice()
			if len(tags) < 2 {
				return fmt.Errorf("at least one tag is required")
			}
			tags = tags[1:]
			reg := registry.New(openStore())
			var err error
			if cmd.Bool("add") {
				err = reg.AddTags(ctx, name, tags)
			} else {
				err = reg.SetTags(ctx, name, tags)
			}
			if err != nil {
				return err
			}
			updated, err := reg.GetTags(ctx, name)
			if err != nil {
				return err
			}
			fmt.Printf("Tagged %s: %v\n", name, updated)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a prompt and all its versions",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().Get(0)
			st := openStore()
			if err := st.DeletePrompt(ctx, name); err != nil {
				return err
			}
			log.Debugf("deleted prompt %s", name)
			fmt.Printf("Deleted %s\n", name)
			return nil
		},
	}
}
