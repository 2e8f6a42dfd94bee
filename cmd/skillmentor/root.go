package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillmentor/internal/app"
	"skillmentor/internal/core/config"
	"skillmentor/internal/core/logger"
	"skillmentor/internal/credential"
	"skillmentor/internal/remote"
)

// cli 一次命令执行的上下文
type cli struct {
	out, errOut io.Writer

	cfgPath  string
	logLevel string
	logFile  string
	asJSON   bool
	baseURL  string

	// 测试注入
	creds credential.Store

	app     *app.App
	log     *zap.Logger
	cleanup func()
}

func newCLI(out, errOut io.Writer) *cli { return &cli{out: out, errOut: errOut} }

// execute 跑一次命令；无论成功失败都释放 app 与日志（cobra 在 RunE 出错时不走 PersistentPostRun）
func (c *cli) execute(ctx context.Context, args []string) error {
	defer c.close()
	root := c.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "skillmentor",
		Short:         "SkillMentor.AI command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&c.cfgPath, "config", "", "config file (default ./configs/config.local.yaml or $CONFIG_PATH)")
	f.StringVar(&c.logLevel, "log-level", "warn", "log level")
	f.StringVar(&c.logFile, "log-file", "", "also write logs to this file (rotated)")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of tables")
	f.StringVar(&c.baseURL, "api", "", "override backend base URL")

	root.AddCommand(
		c.loginCmd(), c.registerCmd(), c.logoutCmd(), c.whoamiCmd(), c.profileCmd(), c.passwordCmd(),
		c.coursesCmd(), c.enrollCmd(), c.unenrollCmd(), c.enrollmentsCmd(), c.progressCmd(),
		c.reviewCmd(), c.statsCmd(),
		c.studentsCmd(), c.adminCmd(),
		c.notesCmd(), c.summaryCmd(), c.uploadCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.API.BaseURL = c.baseURL
	}
	c.log, c.cleanup = logger.NewCLI(c.logLevel, c.logFile)

	opts := []app.Option{app.WithNotifier(printNotifier{w: c.errOut})}
	if c.creds != nil {
		opts = append(opts, app.WithCredentials(c.creds))
	}
	if c.app, err = app.New(cfg, c.log, opts...); err != nil {
		return err
	}
	c.app.Init(cmd.Context())
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		_ = c.app.Close()
		c.app = nil
	}
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
}

// requireLogin 命令需要登录态
func (c *cli) requireLogin() error {
	if !c.app.Session.IsAuthenticated() {
		return fmt.Errorf("not logged in, run `skillmentor login` first")
	}
	return nil
}

func (c *cli) requireAdmin() error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	if !c.app.Session.IsAdmin() {
		return fmt.Errorf("admin only")
	}
	return nil
}

// fail 远程错误只给用户看后端文案
func fail(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", remote.Message(err))
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table 表头 + 行；--json 时输出 v
func (c *cli) table(v any, header string, rows func(w io.Writer)) error {
	if c.asJSON {
		return c.printJSON(v)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

type printNotifier struct{ w io.Writer }

func (p printNotifier) Success(msg string) { fmt.Fprintln(p.w, "ok:", msg) }
func (p printNotifier) Info(msg string)    { fmt.Fprintln(p.w, msg) }
func (p printNotifier) Error(msg string)   { fmt.Fprintln(p.w, "error:", msg) }
