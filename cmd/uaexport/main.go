package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/uaforge/uaexport/internal/browse"
	"github.com/uaforge/uaexport/internal/config"
	"github.com/uaforge/uaexport/internal/export"
	mirrorneo4j "github.com/uaforge/uaexport/internal/mirror/neo4j"
	"github.com/uaforge/uaexport/internal/observability"
	"github.com/uaforge/uaexport/internal/session"
	"github.com/uaforge/uaexport/internal/session/opcua"
	"github.com/uaforge/uaexport/internal/snapshot"
	"github.com/uaforge/uaexport/internal/stats"
	"github.com/uaforge/uaexport/internal/tui"
)

// connFlags are the per-command connection overrides. Anything left at its
// zero value falls back to the config file / environment.
type connFlags struct {
	username   string
	password   string
	security   bool
	policy     string
	mode       string
	cert       string
	key        string
	timeout    time.Duration
	namespaces []int
}

func (f *connFlags) register(cmd *cobra.Command, withNamespaces bool) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Username to login on the server")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "Password to login on the server")
	cmd.Flags().BoolVarP(&f.security, "security", "s", false, "Enable endpoint security")
	cmd.Flags().StringVar(&f.policy, "security-policy", "", "Security policy (None, Basic256, Basic256Sha256, Aes128_Sha256_RsaOaep, Aes256_Sha256_RsaPss)")
	cmd.Flags().StringVar(&f.mode, "security-mode", "", "Message security mode (None, Sign, SignAndEncrypt)")
	cmd.Flags().StringVar(&f.cert, "cert", "", "Client certificate file (DER)")
	cmd.Flags().StringVar(&f.key, "key", "", "Client private key file (PEM)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-call timeout (e.g. 10s)")
	if withNamespaces {
		cmd.Flags().IntSliceVarP(&f.namespaces, "namespace", "n", nil,
			"Export only the given namespace ordinals (repeatable); all nodes when omitted")
	}
}

func (f *connFlags) apply(cfg *config.Config) {
	if f.username != "" {
		cfg.Server.Username = f.username
	}
	if f.password != "" {
		cfg.Server.Password = f.password
	}
	if f.security {
		cfg.Security.Enabled = true
	}
	if f.policy != "" {
		cfg.Security.Policy = f.policy
	}
	if f.mode != "" {
		cfg.Security.Mode = f.mode
	}
	if f.cert != "" {
		cfg.Security.Certificate = f.cert
	}
	if f.key != "" {
		cfg.Security.PrivateKey = f.key
	}
	if f.timeout > 0 {
		cfg.Server.Timeout = f.timeout
	}
	if len(f.namespaces) > 0 {
		cfg.Export.Namespaces = f.namespaces
	}
}

func main() {
	var (
		configPath  string
		plain       bool
		snapshotDir string
	)

	rootCmd := &cobra.Command{
		Use:   "uaexport",
		Short: "Discover, analyze and export OPC UA address spaces",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Disable the progress display, log instead")

	var (
		exportFlags  connFlags
		exportValues bool
	)
	exportCmd := &cobra.Command{
		Use:   "export <endpoint> <output-file>",
		Short: "Discover the address space and write it as a NodeSet XML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(configPath, args[0], args[1], &exportFlags, exportValues, snapshotDir, plain)
		},
	}
	exportFlags.register(exportCmd, true)
	exportCmd.Flags().BoolVarP(&exportValues, "values", "v", false, "Export variable values into the nodeset")
	exportCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Also record the run into this snapshot store")

	var statsFlags connFlags
	statsCmd := &cobra.Command{
		Use:   "stats <endpoint>",
		Short: "Discover the address space and report per-namespace node-class counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(configPath, args[0], &statsFlags, plain)
		},
	}
	statsFlags.register(statsCmd, false)

	var (
		mirrorFlags connFlags
		graphURI    string
		graphUser   string
		graphPass   string
	)
	mirrorCmd := &cobra.Command{
		Use:   "mirror <endpoint>",
		Short: "Discover the address space and mirror it into a Neo4j graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(configPath, args[0], &mirrorFlags, graphURI, graphUser, graphPass, plain)
		},
	}
	mirrorFlags.register(mirrorCmd, false)
	mirrorCmd.Flags().StringVar(&graphURI, "graph-uri", "", "Neo4j URI (e.g. bolt://localhost:7687)")
	mirrorCmd.Flags().StringVar(&graphUser, "graph-user", "", "Neo4j username")
	mirrorCmd.Flags().StringVar(&graphPass, "graph-pass", "", "Neo4j password")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect recorded discovery runs",
	}
	var listDir string
	snapshotListCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded discovery runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotList(listDir)
		},
	}
	snapshotListCmd.Flags().StringVar(&listDir, "snapshot-dir", ".uaexport", "Snapshot store directory")

	var diffDir string
	snapshotDiffCmd := &cobra.Command{
		Use:   "diff <old-id> <new-id>",
		Short: "Compare two recorded discovery runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotDiff(diffDir, args[0], args[1])
		},
	}
	snapshotDiffCmd.Flags().StringVar(&diffDir, "snapshot-dir", ".uaexport", "Snapshot store directory")
	snapshotCmd.AddCommand(snapshotListCmd, snapshotDiffCmd)

	rootCmd.AddCommand(exportCmd, statsCmd, mirrorCmd, snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// pipeline bundles what every discovery command needs once the session is up.
type pipeline struct {
	cfg   *config.Config
	log   *slog.Logger
	tp    *observability.TracerProvider
	ui    *tui.Progress
	plain bool
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func newPipeline(ctx context.Context, configPath string, flags *connFlags, plain bool) (*pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)

	p := &pipeline{
		cfg:   cfg,
		log:   setupLogger(cfg.Log),
		plain: plain,
	}

	tcfg := observability.DefaultTracingConfig()
	tcfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tcfg.SampleRate = cfg.Tracing.SampleRate
	p.tp, err = observability.InitTracing(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if !plain {
		p.ui = tui.Start()
	}
	return p, nil
}

func (p *pipeline) shutdown(ctx context.Context) {
	if p.ui != nil {
		p.ui.Stop()
		p.ui = nil
	}
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			p.log.Warn("tracer shutdown failed", "error", err)
		}
	}
}

// stopUI tears the progress display down early so reports print cleanly.
func (p *pipeline) stopUI() {
	if p.ui != nil {
		p.ui.Stop()
		p.ui = nil
	}
}

func (p *pipeline) connect(ctx context.Context, endpoint string) (*opcua.Client, error) {
	policy, err := opcua.ParsePolicy(p.cfg.Security.Policy)
	if err != nil {
		return nil, err
	}
	mode, err := opcua.ParseMode(p.cfg.Security.Mode)
	if err != nil {
		return nil, err
	}
	opts := opcua.Options{
		Username:    p.cfg.Server.Username,
		Password:    p.cfg.Server.Password,
		CallTimeout: p.cfg.Server.Timeout,
	}
	if p.cfg.Security.Enabled {
		opts.Policy = policy
		opts.Mode = mode
		opts.Certificate = p.cfg.Security.Certificate
		opts.PrivateKey = p.cfg.Security.PrivateKey
	}

	ctx, span := observability.StartConnectSpan(ctx, endpoint)
	defer span.End()

	sess, err := opcua.Dial(ctx, endpoint, opts)
	if err != nil {
		observability.RecordError(span, err)
		p.log.Error("no connection established", "endpoint", endpoint, "error", err)
		return nil, err
	}
	p.log.Info("connected", "endpoint", endpoint)
	return sess, nil
}

// discover builds the namespace index and walks the full address space.
func (p *pipeline) discover(ctx context.Context, sess session.Session) (*browse.Inventory, session.NamespaceIndex, error) {
	idxCtx, idxSpan := observability.StartPhaseSpan(ctx, observability.PhaseIndex)
	idx, err := session.BuildNamespaceIndex(idxCtx, sess)
	if err != nil {
		observability.RecordError(idxSpan, err)
		idxSpan.End()
		return nil, nil, err
	}
	idxSpan.End()
	p.log.Info("namespace index built", "namespaces", len(idx))

	if p.ui != nil {
		p.ui.Phase("discovering nodes", 0)
	}
	p.log.Info("collecting nodes, this may take some time")

	discCtx, discSpan := observability.StartPhaseSpan(ctx, observability.PhaseDiscover)
	defer discSpan.End()

	crawler := browse.NewCrawler(sess,
		browse.WithLogger(p.log),
		browse.WithProgress(p.progressFunc("discovered")),
	)
	inv, err := crawler.Discover(discCtx, sess.Root())
	if err != nil {
		observability.RecordError(discSpan, err)
		return nil, nil, err
	}
	observability.RecordDiscoverResult(discSpan, inv.Len(), len(inv.Edges()))
	p.log.Info("all nodes collected", "count", inv.Len())
	return inv, idx, nil
}

// progressFunc adapts the open-ended progress callback to either the TUI or
// periodic log lines.
func (p *pipeline) progressFunc(verb string) browse.ProgressFunc {
	if p.ui != nil {
		return func(count int) { p.ui.Count(count) }
	}
	return func(count int) {
		if count%500 == 0 {
			p.log.Info("progress", "nodes", count, "phase", verb)
		}
	}
}

func runExport(configPath, endpoint, outputFile string, flags *connFlags, values bool, snapshotDir string, plain bool) error {
	ctx := context.Background()
	p, err := newPipeline(ctx, configPath, flags, plain)
	if err != nil {
		return err
	}
	defer p.shutdown(ctx)
	if values {
		p.cfg.Export.Values = true
	}
	if snapshotDir != "" {
		p.cfg.Export.SnapshotDir = snapshotDir
	}

	sess, err := p.connect(ctx, endpoint)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	inv, idx, err := p.discover(ctx, sess)
	if err != nil {
		return err
	}

	// Statistics over the full inventory, before any export filtering.
	rep, err := p.summarize(ctx, sess, inv, idx)
	if err != nil {
		return err
	}

	filter, err := namespaceFilter(p.cfg.Export.Namespaces)
	if err != nil {
		return err
	}
	selected := export.Select(inv, filter)
	if !filter.All() {
		p.log.Info("namespace filter applied", "selected", len(selected), "total", inv.Len())
	}

	if p.ui != nil {
		p.ui.Phase("exporting nodes", len(selected))
	}
	expCtx, expSpan := observability.StartPhaseSpan(ctx, observability.PhaseExport)
	exporter := export.NewExporter(sess, exporterOptions(p)...)
	doc, err := exporter.BuildDocument(expCtx, selected, inv.Parents(), idx)
	if err != nil {
		observability.RecordError(expSpan, err)
		expSpan.End()
		return err
	}
	if err := export.WriteFile(doc, outputFile); err != nil {
		observability.RecordError(expSpan, err)
		expSpan.End()
		return err
	}
	observability.RecordExportResult(expSpan, len(selected), p.cfg.Export.Values, outputFile)
	expSpan.End()

	p.stopUI()
	if err := rep.Render(os.Stdout); err != nil {
		return err
	}
	p.log.Info("export finished", "file", outputFile, "nodes", len(selected), "values", p.cfg.Export.Values)

	if p.cfg.Export.SnapshotDir != "" {
		if err := saveSnapshot(p, endpoint, inv, idx); err != nil {
			return err
		}
	}
	return nil
}

func exporterOptions(p *pipeline) []export.Option {
	opts := []export.Option{export.WithLogger(p.log)}
	if p.cfg.Export.Values {
		opts = append(opts, export.WithValues())
	}
	if p.ui != nil {
		opts = append(opts, export.WithProgress(func(done, total int) { p.ui.Count(done) }))
	}
	return opts
}

func (p *pipeline) summarize(ctx context.Context, sess session.Session, inv *browse.Inventory, idx session.NamespaceIndex) (*stats.Report, error) {
	if p.ui != nil {
		p.ui.Phase("reading node classes", inv.Len())
	}
	statsCtx, statsSpan := observability.StartPhaseSpan(ctx, observability.PhaseStats)
	defer statsSpan.End()

	opts := []stats.Option{stats.WithLogger(p.log)}
	if p.ui != nil {
		opts = append(opts, stats.WithProgress(func(done, total int) { p.ui.Count(done) }))
	}
	rep, err := stats.Summarize(statsCtx, sess, inv, idx, opts...)
	if err != nil {
		observability.RecordError(statsSpan, err)
		return nil, err
	}
	observability.RecordStatsResult(statsSpan, rep.Total, rep.Failed)
	return rep, nil
}

func runStats(configPath, endpoint string, flags *connFlags, plain bool) error {
	ctx := context.Background()
	p, err := newPipeline(ctx, configPath, flags, plain)
	if err != nil {
		return err
	}
	defer p.shutdown(ctx)

	sess, err := p.connect(ctx, endpoint)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	inv, idx, err := p.discover(ctx, sess)
	if err != nil {
		return err
	}
	rep, err := p.summarize(ctx, sess, inv, idx)
	if err != nil {
		return err
	}

	p.stopUI()
	return rep.Render(os.Stdout)
}

func runMirror(configPath, endpoint string, flags *connFlags, graphURI, graphUser, graphPass string, plain bool) error {
	ctx := context.Background()
	p, err := newPipeline(ctx, configPath, flags, plain)
	if err != nil {
		return err
	}
	defer p.shutdown(ctx)

	if graphURI != "" {
		p.cfg.Graph.URI = graphURI
	}
	if graphUser != "" {
		p.cfg.Graph.Username = graphUser
	}
	if graphPass != "" {
		p.cfg.Graph.Password = graphPass
	}
	if p.cfg.Graph.URI == "" {
		return fmt.Errorf("no graph URI configured (use --graph-uri or graph.uri)")
	}

	m, err := mirrorneo4j.New(ctx, p.cfg.Graph.URI, p.cfg.Graph.Username, p.cfg.Graph.Password)
	if err != nil {
		return err
	}
	defer m.Close(ctx)

	sess, err := p.connect(ctx, endpoint)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	inv, _, err := p.discover(ctx, sess)
	if err != nil {
		return err
	}

	mirrorCtx, mirrorSpan := observability.StartPhaseSpan(ctx, observability.PhaseMirror)
	defer mirrorSpan.End()
	if err := m.StoreAddressSpace(mirrorCtx, endpoint, inv); err != nil {
		observability.RecordError(mirrorSpan, err)
		return err
	}

	p.stopUI()
	p.log.Info("address space mirrored", "uri", p.cfg.Graph.URI, "nodes", inv.Len(), "edges", len(inv.Edges()))
	return nil
}

func runSnapshotList(dir string) error {
	store, err := snapshot.NewStore(dir)
	if err != nil {
		return err
	}
	list := store.List()
	if len(list) == 0 {
		fmt.Println("no snapshots recorded")
		return nil
	}
	for _, s := range list {
		tag := s.Tag
		if tag != "" {
			tag = " (" + tag + ")"
		}
		fmt.Printf("%s  %s  %6d nodes  %s%s\n",
			s.ID, s.CreatedAt.Format(time.RFC3339), s.NodeCount, s.Endpoint, tag)
	}
	return nil
}

func runSnapshotDiff(dir, oldID, newID string) error {
	store, err := snapshot.NewStore(dir)
	if err != nil {
		return err
	}
	oldRec, err := store.Load(oldID)
	if err != nil {
		return err
	}
	newRec, err := store.Load(newID)
	if err != nil {
		return err
	}
	return snapshot.Diff(oldRec, newRec).Render(os.Stdout)
}

func saveSnapshot(p *pipeline, endpoint string, inv *browse.Inventory, idx session.NamespaceIndex) error {
	store, err := snapshot.NewStore(p.cfg.Export.SnapshotDir)
	if err != nil {
		return err
	}
	rec := snapshot.NewRecord(endpoint, inv, idx)
	if err := store.Save(rec); err != nil {
		return err
	}
	p.log.Info("snapshot recorded", "id", rec.ID, "dir", p.cfg.Export.SnapshotDir)
	return nil
}

func namespaceFilter(ords []int) (export.NamespaceFilter, error) {
	if len(ords) == 0 {
		return export.AllNamespaces(), nil
	}
	out := make([]uint16, 0, len(ords))
	for _, ns := range ords {
		if ns < 0 || ns > 65535 {
			return export.NamespaceFilter{}, fmt.Errorf("namespace ordinal %d out of range", ns)
		}
		out = append(out, uint16(ns))
	}
	return export.Namespaces(out...), nil
}
