package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inventree/invctl/internal/cmd"
	jqoutput "github.com/inventree/invctl/internal/cmd/output/jq"
	"github.com/inventree/invctl/internal/cmd/output/tableview"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Cache
)

var (
	cacheUse = Verb.String()

	cacheShort = i18n.T("root.verbs.cache.cacheShort", "Inspect the field label cache")

	cacheLong = normalizers.LongDesc(i18n.T("root.verbs.cache.cacheLong",
		`Field labels reported by the server are cached per table so column headers
do not need a metadata request on every run. Use cache to list or clear them.`))

	cacheExamples = normalizers.Examples(i18n.T("root.verbs.cache.cacheExamples",
		fmt.Sprintf(`
		# Show the cached tables
		%[1]s cache list
		# Forget the labels of the part table
		%[1]s cache clear parts
		# Forget everything
		%[1]s cache clear
		`, meta.CLIName)))
)

// EntryInfo is the structured form of a cached mapping.
type EntryInfo struct {
	Key       string            `json:"key" yaml:"key"`
	Fields    int               `json:"fields" yaml:"fields"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
	Labels    map[string]string `json:"labels" yaml:"labels"`
}

func NewCacheCmd() (*cobra.Command, error) {
	c := &cobra.Command{
		Use:              cacheUse,
		Short:            cacheShort,
		Long:             cacheLong,
		Example:          cacheExamples,
		PersistentPreRun: verbs.SetVerb(Verb),
	}

	c.AddCommand(newListCmd(), newClearCmd())
	return c, nil
}

func newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "list",
		Short:   i18n.T("root.verbs.cache.list.short", "List cached label mappings"),
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return jqoutput.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runList(cmd.BuildHelper(c, args))
		},
	}
	jqoutput.AddFlags(c.Flags())
	return c
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [resource]",
		Short: i18n.T("root.verbs.cache.clear.short", "Remove cached labels of one table or all tables"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runClear(cmd.BuildHelper(c, args))
		},
	}
}

func openStore(helper cmd.Helper) (metadata.LabelStore, func(), error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, nil, err
	}
	return helper.GetLabelStore(cfg)
}

func runList(helper cmd.Helper) error {
	store, release, err := openStore(helper)
	if err != nil {
		return err
	}
	defer release()

	entries, err := store.List(helper.GetContext())
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to read the label cache", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	infos := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, EntryInfo{Key: e.Key, Fields: len(e.Labels), UpdatedAt: e.UpdatedAt, Labels: e.Labels})
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	return tableview.RenderForFormat(helper, outType, infos, func() error {
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			updated := ""
			if !info.UpdatedAt.IsZero() {
				updated = info.UpdatedAt.Local().Format(time.DateTime)
			}
			rows = append(rows, []string{info.Key, fmt.Sprint(info.Fields), updated})
		}
		return tableview.Static(helper.GetStreams().Out, i18n.T("root.verbs.cache.title", "Label cache"),
			[]string{"Key", "Fields", "Updated"}, rows, "")
	})
}

func runClear(helper cmd.Helper) error {
	store, release, err := openStore(helper)
	if err != nil {
		return err
	}
	defer release()

	ctx := helper.GetContext()
	out := helper.GetStreams().Out
	args := helper.GetArgs()
	if len(args) == 0 {
		if err := store.Clear(ctx); err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, "failed to clear the label cache", err)
		}
		_, err := fmt.Fprintln(out, i18n.T("root.verbs.cache.cleared", "Label cache cleared"))
		return err
	}

	key, err := cacheKey(helper, args[0])
	if err != nil {
		return err
	}
	if err := store.Invalidate(ctx, key); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to clear the label cache", err, "key", key)
	}
	_, err = fmt.Fprintf(out, "%s %s\n", i18n.T("root.verbs.cache.removed", "Removed cached labels of"), key)
	return err
}

// cacheKey resolves a resource name, or falls back to a raw cache key.
func cacheKey(helper cmd.Helper, name string) (string, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return "", err
	}
	reg, err := session.Registry(cfg)
	if err != nil {
		return "", err
	}
	if res, ok := reg.Lookup(name); ok {
		return metadata.CacheKey(res.Key()), nil
	}
	key := strings.TrimSpace(name)
	if key == "" {
		return "", &cmd.ConfigurationError{Err: fmt.Errorf("empty cache key")}
	}
	return key, nil
}
