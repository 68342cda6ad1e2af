package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/maxdollinger/imagespec/internal/config"
	"github.com/maxdollinger/imagespec/internal/db"
	"github.com/maxdollinger/imagespec/internal/store"
	"github.com/maxdollinger/imagespec/pkg/fs"
	"github.com/maxdollinger/imagespec/pkg/imagespec"
	"github.com/maxdollinger/imagespec/pkg/lock"
	"github.com/maxdollinger/imagespec/pkg/oci"
	"github.com/opencontainers/go-digest"
)

const usage = `imagespec - inspect and store OCI image configurations

Usage:
  imagespec [global options] <command> [options]

Commands:
  inspect   decode a config from a registry, file or tarball and print it
  fetch     fetch a config from a registry and store it
  get       print a stored config
  list      list stored configs
  delete    delete a stored config
  launch    write launch files (env, argv) for a stored config

Global options:
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("imagespec", flag.ContinueOnError)
	global.SetOutput(stderr)
	configDir := global.String("config", ".", "directory containing imagespec.yaml")
	dbPath := global.String("db", "", "sqlite database path (overrides config)")
	logLevel := global.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load config: %s\n", err)
		return 1
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := config.NewLogger(stderr, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}

	a := &app{cfg: cfg, logger: logger, stdout: stdout}
	cmd, cmdArgs := global.Arg(0), global.Args()[1:]

	var cmdErr error
	switch cmd {
	case "inspect":
		cmdErr = a.inspect(ctx, cmdArgs, stderr)
	case "fetch":
		cmdErr = a.fetch(ctx, cmdArgs, stderr)
	case "get":
		cmdErr = a.get(ctx, cmdArgs, stderr)
	case "list":
		cmdErr = a.list(ctx, cmdArgs, stderr)
	case "delete":
		cmdErr = a.delete(ctx, cmdArgs, stderr)
	case "launch":
		cmdErr = a.launch(ctx, cmdArgs, stderr)
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", cmd)
		global.Usage()
		return 2
	}

	if errors.Is(cmdErr, flag.ErrHelp) {
		return 0
	}
	if errors.Is(cmdErr, errUsage) {
		return 2
	}
	if cmdErr != nil {
		fmt.Fprintf(stderr, "Error: %s\n", cmdErr)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(stderr)
	return fset
}

func parse(fset *flag.FlagSet, args []string) error {
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	specDB, err := db.NewDB(a.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.InitSchema(ctx, specDB); err != nil {
		specDB.Close()
		return nil, nil, err
	}
	s := store.New(specDB, lock.NewKeyedLocker()).WithLogger(a.logger)
	return s, func() { specDB.Close() }, nil
}

func (a *app) source(ref, file, tarballPath, tag string) (oci.OciImageSource, error) {
	switch {
	case ref != "" && file == "" && tarballPath == "":
		return oci.NewRegistryProvider(ref, oci.WithPlatform(a.cfg.Platform))
	case file != "" && ref == "" && tarballPath == "":
		return oci.NewFileProvider(file), nil
	case tarballPath != "" && ref == "" && file == "":
		return oci.NewTarballProvider(tarballPath, tag)
	}
	return nil, fmt.Errorf("exactly one of -ref, -file or -tarball is required")
}

func (a *app) fetchImage(ctx context.Context, src oci.OciImageSource) (*oci.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	logger := a.logger.With("source", src.Info())
	logger.DebugContext(ctx, "fetching image config")

	image, err := src.GetImage(ctx)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "image config fetched",
		"configDigest", image.ConfigDigest.String(),
		"layers", len(image.Spec.Rootfs.DiffIDs),
		"duration", time.Since(start))
	return image, nil
}

func (a *app) inspect(ctx context.Context, args []string, stderr io.Writer) error {
	fset := newFlagSet("inspect", stderr)
	ref := fset.String("ref", "", "image reference, e.g. nginx:latest")
	file := fset.String("file", "", "path to a config JSON document")
	tarballPath := fset.String("tarball", "", "path to a docker save archive")
	tag := fset.String("tag", "", "image tag inside -tarball")
	asJSON := fset.Bool("json", false, "print the re-serialized document")
	if err := parse(fset, args); err != nil {
		return err
	}

	src, err := a.source(*ref, *file, *tarballPath, *tag)
	if err != nil {
		return err
	}
	image, err := a.fetchImage(ctx, src)
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(a.stdout, image.Spec)
	}
	printSummary(a.stdout, image.ConfigDigest, image.Spec)
	return nil
}

func (a *app) fetch(ctx context.Context, args []string, stderr io.Writer) error {
	fset := newFlagSet("fetch", stderr)
	ref := fset.String("ref", "", "image reference, e.g. nginx:latest")
	if err := parse(fset, args); err != nil {
		return err
	}
	if *ref == "" {
		return fmt.Errorf("-ref is required")
	}

	src, err := a.source(*ref, "", "", "")
	if err != nil {
		return err
	}
	image, err := a.fetchImage(ctx, src)
	if err != nil {
		return err
	}

	s, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	dgst, err := s.PutRaw(ctx, src.Info(), image.RawConfig)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, dgst)
	return nil
}

func digestFlag(fset *flag.FlagSet) *string {
	return fset.String("digest", "", "config digest, e.g. sha256:...")
}

func requireDigest(s string) (digest.Digest, error) {
	if s == "" {
		return "", fmt.Errorf("-digest is required")
	}
	d, err := digest.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid -digest: %w", err)
	}
	return d, nil
}

func (a *app) get(ctx context.Context, args []string, stderr io.Writer) error {
	fset := newFlagSet("get", stderr)
	dgstStr := digestFlag(fset)
	out := fset.String("out", "", "write the document to this file instead of stdout")
	if err := parse(fset, args); err != nil {
		return err
	}
	dgst, err := requireDigest(*dgstStr)
	if err != nil {
		return err
	}

	s, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	spec, err := s.Get(ctx, dgst)
	if err != nil {
		return err
	}
	if *out == "" {
		return printJSON(a.stdout, spec)
	}

	b, err := imagespec.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	if err := fs.WriteFileAtomic(*out, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	a.logger.InfoContext(ctx, "image config written", "digest", dgst.String(), "path", *out)
	return nil
}

func (a *app) list(ctx context.Context, args []string, stderr io.Writer) error {
	fset := newFlagSet("list", stderr)
	if err := parse(fset, args); err != nil {
		return err
	}

	s, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := s.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIGEST\tPLATFORM\tREFERENCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s/%s\t%s\n", e.Digest, e.OS, e.Architecture, e.Reference)
	}
	return tw.Flush()
}

func (a *app) delete(ctx context.Context, args []string, stderr io.Writer) error {
	fset := newFlagSet("delete", stderr)
	dgstStr := digestFlag(fset)
	if err := parse(fset, args); err != nil {
		return err
	}
	dgst, err := requireDigest(*dgstStr)
	if err != nil {
		return err
	}

	s, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	return s.Delete(ctx, dgst)
}

func (a *app) launch(ctx context.Context, args []string, stderr io.Writer) error {
	fset := newFlagSet("launch", stderr)
	dgstStr := digestFlag(fset)
	out := fset.String("out", "", "directory to write launch files into")
	if err := parse(fset, args); err != nil {
		return err
	}
	dgst, err := requireDigest(*dgstStr)
	if err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("-out is required")
	}

	s, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	spec, err := s.Get(ctx, dgst)
	if err != nil {
		return err
	}
	return fs.NewLaunchConfigWriter().WriteConfig(ctx, *out, spec.Config)
}

func printJSON(w io.Writer, spec *imagespec.ImageSpec) error {
	b, err := imagespec.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printSummary(w io.Writer, configDigest digest.Digest, spec *imagespec.ImageSpec) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	platform := spec.OS + "/" + spec.Architecture
	if spec.Variant != nil {
		platform += "/" + *spec.Variant
	}
	fmt.Fprintf(tw, "Digest:\t%s\n", configDigest)
	fmt.Fprintf(tw, "Platform:\t%s\n", platform)
	if spec.OSVersion != nil {
		fmt.Fprintf(tw, "OS version:\t%s\n", *spec.OSVersion)
	}
	if created, ok := spec.CreatedTime(); ok {
		fmt.Fprintf(tw, "Created:\t%s\n", created.UTC().Format(time.RFC3339))
	}
	if spec.Author != nil {
		fmt.Fprintf(tw, "Author:\t%s\n", *spec.Author)
	}
	fmt.Fprintf(tw, "Layers:\t%d\n", len(spec.Rootfs.DiffIDs))
	fmt.Fprintf(tw, "History:\t%d\n", len(spec.History))
	if c := spec.Config; c != nil {
		if len(c.Entrypoint) > 0 {
			fmt.Fprintf(tw, "Entrypoint:\t%s\n", strings.Join(c.Entrypoint, " "))
		}
		if len(c.Cmd) > 0 {
			fmt.Fprintf(tw, "Cmd:\t%s\n", strings.Join(c.Cmd, " "))
		}
		if c.User != nil {
			fmt.Fprintf(tw, "User:\t%s\n", *c.User)
		}
		if c.WorkingDir != nil {
			fmt.Fprintf(tw, "WorkingDir:\t%s\n", *c.WorkingDir)
		}
	}
}
