package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"class_newsletter_writer/app"
	"class_newsletter_writer/server"
	"class_newsletter_writer/workbook"
)

func addCommands(root *cobra.Command) {
	root.AddCommand(
		serveCmd(),
		generateCmd(),
		analyzeCmd(),
		profileCmd(),
		credentialCmd(),
		samplesCmd(),
		stateCmd(),
		selectCmd(),
		cellCmd(),
	)
}

// withRuntime builds the runtime for one command and closes it afterwards.
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, args, rt)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API used by the sidebar",
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			srv, err := server.New(rt.svc, logger, server.Options{
				AllowOrigins:   rt.cfg.Server.AllowOrigins,
				RequestTimeout: time.Duration(rt.cfg.Server.RequestTimeoutSec) * time.Second,
			})
			if err != nil {
				return err
			}
			listen := rt.cfg.Server.Addr
			if addr != "" {
				listen = addr
			}
			return srv.Run(cmd.Context(), listen)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		in       app.GenerateInput
		memoFile string
		htmlOut  string
		title    string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a newsletter paragraph from memos and write it to the selected cell",
		Long: `Reads one memo per line (from --memos, --file, or stdin with --file -),
generates the paragraph and writes it to the current selection of the workbook.

Goal codes:
  A  学校行事の様子や連絡事項
  B  普段の学校生活での子供たちの様子
  C  保護者へのメッセージや想い
  D  その他 (目的を限定しない)`,
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			if memoFile != "" {
				var (
					b   []byte
					err error
				)
				if memoFile == "-" {
					b, err = io.ReadAll(cmd.InOrStdin())
				} else {
					b, err = os.ReadFile(memoFile)
				}
				if err != nil {
					return fmt.Errorf("read memos: %w", err)
				}
				in.MemoText = string(b)
			}
			res, err := rt.svc.GenerateNewsletter(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "書き込み先: %s (%d文字, メモ%d件)\n", res.WrittenTo, res.TextLength, res.ProcessedMemos)
			for _, m := range res.Missing {
				fmt.Fprintf(cmd.ErrOrStderr(), "反映不十分な可能性: %s\n", m)
			}
			if htmlOut != "" {
				page, err := rt.svc.PreviewHTML(title, res.Text)
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlOut, []byte(page), 0o644); err != nil {
					return fmt.Errorf("write html: %w", err)
				}
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.MemoText, "memos", "", "memo text, one item per line")
	f.StringVarP(&memoFile, "file", "f", "", "read memos from file (- for stdin)")
	f.StringVarP(&in.GoalCode, "goal", "g", "", "goal code A-D")
	f.IntVar(&in.CharCount, "chars", 0, "target length in characters (0 = goal default)")
	f.StringVar(&in.GradeLevel, "grade", "", "grade level: elementary_1..elementary_6, middle_school, high_school")
	f.StringVar(&htmlOut, "html", "", "also write a printable HTML page to this path")
	f.StringVar(&title, "title", "学級通信", "title of the HTML page")
	return cmd
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Learn the writing style from the samples sheet",
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			sum, err := rt.svc.AnalyzeStyle(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "文体分析が完了し、結果を「%s」シートに書き出しました。内容は直接編集可能です。\n", workbook.ProfileSheet)
			return printJSON(cmd.OutOrStdout(), sum)
		}),
	}
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect or reload the stored style profile",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored profile and activate the profile sheet",
			RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
				sp, err := rt.props.LoadProfile(cmd.Context())
				if err != nil {
					return err
				}
				if sp == nil {
					return errors.New("文体プロファイルがまだ保存されていません。先に文体分析を実行してください。")
				}
				if err := rt.svc.ShowProfileSheet(cmd.Context()); err != nil && !errors.Is(err, workbook.ErrSheetNotFound) {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sp)
			}),
		},
		&cobra.Command{
			Use:   "reload",
			Short: "Re-read the edited profile sheet into the store",
			RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
				sum, err := rt.svc.ReloadProfile(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sum)
			}),
		},
	)
	return cmd
}

func credentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the Gemini API key",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [api-key]",
			Short: "Save the API key for the current user (reads stdin when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
				key := ""
				if len(args) == 1 {
					key = args[0]
				} else {
					b, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return err
					}
					key = string(b)
				}
				if err := rt.svc.SaveCredential(cmd.Context(), strings.TrimSpace(key)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "APIキーを保存しました。")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the API key from the user and shared scopes",
			RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
				if err := rt.svc.DeleteCredential(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "APIキーを削除しました。")
				if rt.cfg.LLM.APIKey != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "設定ファイルまたは GEMINI_API_KEY のキーは次回の起動時に共有キーとして再登録されます。")
				}
				return nil
			}),
		},
	)
	return cmd
}

func samplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Manage the samples sheet",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the samples sheet if it does not exist",
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			if err := rt.svc.EnsureSampleSheet(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "「%s」シートのA列(2行目以降)に過去の学級通信を1セル1記事で貼り付けてください: %s\n",
				workbook.SamplesSheet, rt.wb.Path())
			return nil
		}),
	})
	return cmd
}

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print credential, profile and selection status",
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			st, err := rt.svc.InitState(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		}),
	}
}

func selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select SHEET!RANGE",
		Short: "Select the output cell or range, e.g. 'Sheet1!B3'",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			sheet, r, err := workbook.ParseDescriptor(args[0])
			if err != nil {
				return err
			}
			if _, ok := rt.wb.Sheet(sheet); !ok {
				if _, err := rt.wb.InsertSheet(sheet); err != nil {
					return err
				}
			}
			if err := rt.wb.Select(sheet, r); err != nil {
				return err
			}
			if err := rt.wb.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.svc.SelectedContent(cmd.Context()))
			return nil
		}),
	}
}

func cellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cell",
		Short: "Direct cell access for troubleshooting",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "write SHEET CELL TEXT",
		Short: "Write TEXT to CELL of SHEET (falls back to the active sheet)",
		Args:  cobra.ExactArgs(3),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			res, err := rt.svc.WriteToCell(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}),
	})
	return cmd
}
