package cli

import (
	"errors"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Alp4ka/keyset"
)

type pageOptions struct {
	configPath string
	cfg        Config
	bookmark   string
	backwards  bool
	expanded   bool
}

// NewPageCommand creates the page command.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &pageOptions{}

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Fetch one page of a table",
		Long: `Fetch one page of a table ordered by the given columns.

The page is followed by the bookmarks of the next and previous pages; pass
one of them with --bookmark to continue paging.`,
		Example: `  keyset page --driver sqlite --dsn app.db --table users \
    --column id --column name --order "name asc" --order "id desc" --per-page 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPage(cmd, rootOpts, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML or TOML config file")
	flags.StringVar(&opts.cfg.Driver, "driver", "", "database driver (sqlite|postgres|mysql)")
	flags.StringVar(&opts.cfg.DSN, "dsn", "", "data source name")
	flags.StringVar(&opts.cfg.Table, "table", "", "table to page through")
	flags.StringArrayVarP(&opts.cfg.Columns, "column", "c", nil, "selected column (repeatable)")
	flags.StringArrayVarP(&opts.cfg.Order, "order", "o", nil, `order term "alias asc|desc" (repeatable)`)
	flags.StringToStringVar(&opts.cfg.ColumnMapping, "map", nil, "order alias to column mapping (alias=column)")
	flags.IntVarP(&opts.cfg.PerPage, "per-page", "n", keyset.DefaultLimit, "page size")
	flags.StringVarP(&opts.bookmark, "bookmark", "b", "", "bookmark to page from")
	flags.BoolVar(&opts.backwards, "backwards", false, "page backwards")
	flags.BoolVar(&opts.expanded, "expanded", false, "use an OR of ANDs instead of a row value comparison")

	return cmd
}

// config loads the config file, if any, and applies the flags that were set.
func (o *pageOptions) config(cmd *cobra.Command) (*Config, error) {
	if o.configPath == "" {
		return &o.cfg, o.cfg.validate()
	}

	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = o.cfg.Driver
	}
	if flags.Changed("dsn") {
		cfg.DSN = o.cfg.DSN
	}
	if flags.Changed("table") {
		cfg.Table = o.cfg.Table
	}
	if flags.Changed("column") {
		cfg.Columns = o.cfg.Columns
	}
	if flags.Changed("order") {
		cfg.Order = o.cfg.Order
	}
	if flags.Changed("map") {
		cfg.ColumnMapping = o.cfg.ColumnMapping
	}
	if flags.Changed("per-page") || cfg.PerPage == 0 {
		cfg.PerPage = o.cfg.PerPage
	}

	return cfg, cfg.validate()
}

func runPage(cmd *cobra.Command, rootOpts *RootOptions, opts *pageOptions) error {
	cfg, err := opts.config(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	orderings, err := keyset.ParseSort(cfg.Order, cfg.mapping())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid order", err)
	}

	bookmark, err := keyset.DecodeBookmark(opts.bookmark)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid bookmark", err)
	}
	if opts.backwards {
		bookmark = &keyset.Bookmark{Place: lo.FromPtr(bookmark).Place, Backwards: true}
	}

	db, err := openDB(cfg.Driver, cfg.DSN, rootOpts.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot connect", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	columns := lo.Map(cfg.Columns, func(c string, _ int) keyset.Expr {
		return keyset.Col(c)
	})
	plan := keyset.NewSelect(keyset.Exprs(columns...)...).
		From(cfg.Table).
		OrderBy(orderings.Exprs()...)

	pager := keyset.NewPager().
		WithPerPage(cfg.PerPage).
		WithBookmark(bookmark).
		WithLogger(newLogger(cmd, rootOpts.Verbose))
	if opts.expanded {
		pager = pager.WithExpandedBoundary()
	}

	page, err := pager.GetPage(cmd.Context(), plan, keyset.NewGormExecutor(db))
	if err != nil {
		if errors.Is(err, keyset.ErrInvalidPage) {
			return WrapExitError(ExitCommandError, "invalid bookmark", err)
		}
		return WrapExitError(ExitFailure, "cannot fetch page", err)
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	return formatter.Page(newPageView(page))
}

// newPageView lists rows in the natural order with the bookmarks of the
// neighbouring pages.
func newPageView(page *keyset.Page) *PageView {
	view := &PageView{
		Columns: page.Columns,
		Rows:    make([]map[string]any, 0, len(page.Rows)),
	}

	for _, row := range page.NaturalRows() {
		m := row.Map()
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		view.Rows = append(view.Rows, m)
	}

	if page.Paging.HasNext() {
		view.Next = page.Paging.Next().String()
	}
	if page.Paging.HasPrevious() {
		view.Previous = page.Paging.Previous().String()
	}

	return view
}
