package fs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/maxdollinger/imagespec/pkg/imagespec"
)

const (
	LaunchDir    = "launch"
	EnvFileName  = "env"
	ArgvFileName = "argv"
)

type ConfigWriter interface {
	// WriteConfig materializes the runtime defaults of config below dir
	WriteConfig(ctx context.Context, dir string, config *imagespec.Config) error
}

// LaunchConfigWriter writes dir/launch/env and dir/launch/argv, one entry per
// line, from an image's runtime defaults. A nil config yields the defaults.
type LaunchConfigWriter struct{}

func NewLaunchConfigWriter() *LaunchConfigWriter {
	return &LaunchConfigWriter{}
}

func (i *LaunchConfigWriter) WriteConfig(ctx context.Context, dir string, config *imagespec.Config) error {
	if config == nil {
		config = &imagespec.Config{}
	}

	configDir := path.Join(dir, LaunchDir)
	err := os.MkdirAll(configDir, 0o755)
	if err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}

	err = i.writeEnv(configDir, config)
	if err != nil {
		return fmt.Errorf("could not create env file: %w", err)
	}

	err = i.writeArgv(configDir, config)
	if err != nil {
		return fmt.Errorf("could not create argv file: %w", err)
	}

	return nil
}

func (i *LaunchConfigWriter) writeEnv(configDir string, config *imagespec.Config) error {
	var env bytes.Buffer
	writer := bufio.NewWriter(&env)

	for _, line := range config.Env {
		_, err := writer.WriteString(strings.TrimSpace(line))
		if err != nil {
			return fmt.Errorf("could not write env to buffer: %w", err)
		}
		_, err = writer.WriteRune('\n')
		if err != nil {
			return fmt.Errorf("could not write env to buffer: %w", err)
		}
	}

	workdir := "/"
	if config.WorkingDir != nil && len(*config.WorkingDir) > 0 {
		workdir = *config.WorkingDir
	}
	_, err := fmt.Fprintf(writer, "WORKDIR=%s", workdir)
	if err != nil {
		return fmt.Errorf("could not write workdir to buffer: %w", err)
	}

	err = writer.Flush()
	if err != nil {
		return fmt.Errorf("could not flush env writer: %w", err)
	}

	err = WriteFileAtomic(path.Join(configDir, EnvFileName), env.Bytes(), 0o644)
	if err != nil {
		return fmt.Errorf("could not write env to file: %w", err)
	}

	return nil
}

func (i *LaunchConfigWriter) writeArgv(configDir string, config *imagespec.Config) error {
	var argv bytes.Buffer
	writer := bufio.NewWriter(&argv)

	for _, line := range append(append([]string{}, config.Entrypoint...), config.Cmd...) {
		_, err := writer.WriteString(strings.TrimSpace(line))
		if err != nil {
			return fmt.Errorf("could not write arg to buffer: %w", err)
		}
		_, err = writer.WriteRune('\n')
		if err != nil {
			return fmt.Errorf("could not write arg to buffer: %w", err)
		}
	}

	err := writer.Flush()
	if err != nil {
		return fmt.Errorf("could not flush argv writer: %w", err)
	}

	err = WriteFileAtomic(path.Join(configDir, ArgvFileName), argv.Bytes(), 0o644)
	if err != nil {
		return fmt.Errorf("could not write argv to file: %w", err)
	}

	return nil
}

type NoOpConfigWriter struct{}

func NewNoOpConfigWriter() *NoOpConfigWriter {
	return &NoOpConfigWriter{}
}

func (p *NoOpConfigWriter) WriteConfig(ctx context.Context, dir string, config *imagespec.Config) error {
	return nil
}
