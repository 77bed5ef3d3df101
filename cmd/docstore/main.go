package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/spf13/cobra"

	docstore "github.com/safval/DistributedDocumentStorage"
	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/config"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/http"
	"github.com/safval/DistributedDocumentStorage/utils"
)

var (
	configPath string
	store      *docstore.Store
)

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func parseID(arg string) (core.DocID, error) {
	v, err := strconv.ParseUint(arg, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", arg)
	}
	return core.DocID(v), nil
}

// withSession opens the document named by the first argument, runs fn and
// closes the document.
func withSession(ctx context.Context, arg string, fn func(s *docstore.Session) error) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	session, err := store.Open(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		session.Close()
		return err
	}
	return session.Close()
}

var rootCmd = &cobra.Command{
	Use:           "docstore",
	Short:         "Transactional document object store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level, err := cfg.Log.SlogLevel()
		if err != nil {
			return err
		}
		store, err = docstore.Open(cmd.Context(), cfg, utils.NewDefaultLogger(level))
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return store.Close()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  user %d\n", color.CyanString("%x", uint64(id)), id.User())
		}
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetUint32("user")
		session, err := store.Create(cmd.Context(), core.UserID(user))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("%x", uint64(session.ID())))
		return session.Close()
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <id>",
	Short: "Print the objects of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withSession(cmd.Context(), args[0], func(s *docstore.Session) error {
			out := cmd.OutOrStdout()
			hub := s.Hub()
			fmt.Fprintf(out, "%s transactions %d, undo %t, redo %t\n",
				color.CyanString("%x", uint64(s.ID())), hub.Len(), hub.HasUndo(), hub.HasRedo())
			if !asJSON {
				fmt.Fprintln(out, s.Document().DebugString())
				return nil
			}
			nw := codec.NewNodeWriter()
			if err := s.Document().Save(nw); err != nil {
				return err
			}
			node, err := nw.Node()
			if err != nil {
				return err
			}
			if err := dagjson.Encode(node, out); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := store.Remove(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("removed %x", uint64(id)))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write the log of a document as a CAR file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var out io.Writer = cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return store.Export(cmd.Context(), id, out)
	},
}

var packCmd = &cobra.Command{
	Use:   "pack <id>",
	Short: "Merge the oldest transactions of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("max")
		return withSession(cmd.Context(), args[0], func(s *docstore.Session) error {
			before := s.Hub().Len()
			if err := s.Pack(keep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "packed %d -> %d transactions\n", before, s.Hub().Len())
			return nil
		})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Revert the current transaction of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), args[0], func(s *docstore.Session) error {
			return s.Undo()
		})
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo <id>",
	Short: "Apply the next undone transaction of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), args[0], func(s *docstore.Session) error {
			return s.Redo()
		})
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Print the registered types as SDL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sdl, err := store.Env().Types.SDL()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), sdl)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only inspection API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		store.Env().Log.Info("serving", "addr", addr)
		return http.ListenAndServe(store, addr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	createCmd.Flags().Uint32("user", uint32(core.DefaultLocalUserID), "owner of the new document")
	dumpCmd.Flags().Bool("json", false, "print the saved object tree as JSON")
	exportCmd.Flags().StringP("output", "o", "", "output file")
	packCmd.Flags().Int("max", 1, "number of transactions to keep")
	serveCmd.Flags().String("addr", ":8080", "listen address")
	rootCmd.AddCommand(listCmd, createCmd, dumpCmd, removeCmd, exportCmd, packCmd, undoCmd, redoCmd, typesCmd, serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
