package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/notebox/internal"
	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/noteservice"
)

// withService opens the runtime for a one-shot command. Logs go to stderr so
// stdout stays readable.
func withService(ctx context.Context, cmd *cli.Command, fn func(svc *noteservice.Service, out io.Writer) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := internal.Open(ctx, cfg, internal.NewLogger(cfg, os.Stderr), nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt.Service, cmd.Root().Writer)
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.Args().Len() != n {
		return fmt.Errorf("%w: usage: %s %s", apperr.ErrInvalidInput, cmd.Name, cmd.ArgsUsage)
	}
	return nil
}

func addNote(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 2); err != nil {
		return err
	}
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		n, err := svc.CreateAndSave(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s to %s\n", n.ID, svc.CurrentBackendLabel())
		return nil
	})
}

func listNotes(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		notes, st := svc.ListWithBackend(ctx)
		fmt.Fprintf(out, "%d note(s) in %s\n", len(notes), st.Label)
		for _, n := range notes {
			item := noteservice.Item(n)
			fmt.Fprintf(out, "%s  %s  %s\n    %s\n", item.ID, n.CreatedAt().Format(time.DateTime), item.Title, item.Preview)
		}
		return nil
	})
}

func showNote(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		n, err := svc.Get(ctx, cmd.Args().First())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n%s\n\n%s\n", n.DisplayTitle(), n.CreatedAt().Format(time.DateTime), n.Content)
		return nil
	})
}

func editNote(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 3); err != nil {
		return err
	}
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		n, err := svc.Update(ctx, cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %s\n", n.ID)
		return nil
	})
}

func deleteNote(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		if err := svc.DeleteByID(ctx, cmd.Args().First()); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", cmd.Args().First())
		return nil
	})
}

func clearNotes(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		if len(svc.ListAll(ctx)) == 0 {
			fmt.Fprintln(out, "nothing to delete")
			return nil
		}
		if err := svc.DeleteAll(ctx, cmd.Bool("yes")); err != nil {
			return fmt.Errorf("%w (pass --yes)", err)
		}
		fmt.Fprintln(out, "all notes deleted")
		return nil
	})
}

func showBackend(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		st := svc.Backend()
		fmt.Fprintf(out, "%s (%s)\n", st.Label, st.Kind)
		return nil
	})
}

func switchBackend(ctx context.Context, cmd *cli.Command) error {
	return withService(ctx, cmd, func(svc *noteservice.Service, out io.Writer) error {
		st, err := svc.ToggleBackend(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "switched to %s (%d migrated", st.Label, st.Migrated)
		if st.Failed > 0 {
			fmt.Fprintf(out, ", %d failed", st.Failed)
		}
		fmt.Fprintln(out, ")")
		return nil
	})
}
