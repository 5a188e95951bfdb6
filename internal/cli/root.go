// Package cli 运维命令行：手动生成报告、补齐历史、起草拒绝邮件
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/blues/fundcrm/internal/config"
	"github.com/blues/fundcrm/internal/database"
	"github.com/blues/fundcrm/internal/llm"
	"github.com/blues/fundcrm/internal/logger"
	"github.com/blues/fundcrm/internal/rejection"
	"github.com/blues/fundcrm/internal/report"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// ValidFormats 支持的输出格式
var ValidFormats = []string{"text", "json"}

// Env 命令运行所需的依赖
type Env struct {
	DB        *gorm.DB
	Generator *report.Generator
	Drafter   *rejection.Drafter
}

// RootOptions 全局参数
type RootOptions struct {
	Format string

	open func() (*Env, error)
	env  *Env
}

// Env 首次使用时才连接数据库
func (o *RootOptions) Env() (*Env, error) {
	if o.env != nil {
		return o.env, nil
	}
	env, err := o.open()
	if err != nil {
		return nil, err
	}
	o.env = env
	return env, nil
}

// NewRootCommand 按配置文件与环境变量连接数据库
func NewRootCommand() *cobra.Command {
	return newRootCommand(openFromConfig)
}

func newRootCommand(open func() (*Env, error)) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "fundctl",
		Short: "Fund CRM operations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewRejectionCommand(opts))

	return cmd
}

func openFromConfig() (*Env, error) {
	cfg := config.Load()
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}
	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, err
	}
	loc, err := report.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return nil, err
	}
	gen := llm.New(cfg.LLM)
	return &Env{
		DB:        db,
		Generator: report.NewGenerator(db, gen, loc),
		Drafter:   rejection.NewDrafter(cfg.SMS.OrgName, gen),
	}, nil
}

// NewMigrateCommand 执行数据库迁移
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.Env()
			if err != nil {
				return err
			}
			if err := database.Migrate(env.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// printJSON 以缩进 JSON 输出
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
