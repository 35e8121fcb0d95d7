// Package project manages a waveform-inversion project tree: its folder
// structure, TOML configuration, and the component registry through which
// the subsystems reach each other.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
	"github.com/couchcryptid/seismic-project-service/internal/observability"
	"github.com/couchcryptid/seismic-project-service/internal/query"
	"github.com/couchcryptid/seismic-project-service/internal/registry"
	"github.com/couchcryptid/seismic-project-service/internal/store/events"
	"github.com/couchcryptid/seismic-project-service/internal/store/stations"
	"github.com/couchcryptid/seismic-project-service/internal/store/waveforms"
)

const configFileName = "project_config.toml"

// DownloadSettings mirror the [seismic_project.download_settings] table.
type DownloadSettings struct {
	SecondsBeforeEvent      float64  `toml:"seconds_before_event"`
	SecondsAfterEvent       float64  `toml:"seconds_after_event"`
	InterstationDistanceInM float64  `toml:"interstation_distance_in_meters"`
	ChannelPriorities       []string `toml:"channel_priorities"`
	LocationPriorities      []string `toml:"location_priorities"`
}

// Settings is the [seismic_project] table of the project config file.
type Settings struct {
	ProjectName      string           `toml:"project_name"`
	Description      string           `toml:"description"`
	MeshFile         string           `toml:"mesh_file"`
	DownloadSettings DownloadSettings `toml:"download_settings"`
}

type configFile struct {
	SeismicProject Settings `toml:"seismic_project"`
}

// Project is one open project session. It owns the path table, the parsed
// config, and the communicator holding the session's components.
type Project struct {
	Root   string
	Paths  map[string]string
	Config Settings

	comm   *registry.Communicator
	logger *slog.Logger
	events *events.Store
}

// clock is a package-level time source so tests can freeze folder and log
// file timestamps.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Open opens an existing project rooted at root. It fails if the config file
// is missing and rebuilds any missing folders.
func Open(root string, logger *slog.Logger) (*Project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	p := &Project{
		Root:   root,
		Paths:  setupPaths(root),
		comm:   registry.New(),
		logger: logger,
	}

	if _, err := os.Stat(p.Paths["config_file"]); err != nil {
		return nil, fmt.Errorf(
			"could not find the project's config file, wrong project path or uninitialized project: %w", err)
	}

	var cf configFile
	if _, err := toml.DecodeFile(p.Paths["config_file"], &cf); err != nil {
		return nil, fmt.Errorf("parse project config: %w", err)
	}
	p.Config = cf.SeismicProject

	if err := p.updateFolderStructure(); err != nil {
		return nil, err
	}

	logger.Info("project opened", "name", p.Config.ProjectName, "root", root)
	return p, nil
}

// Init initializes a new project at root: it creates the folder structure
// and a default config file if none exists, then opens the project.
func Init(root, projectName string, logger *slog.Logger) (*Project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}

	configPath := filepath.Join(root, configFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if projectName == "" {
			projectName = "SeismicProject"
		}
		if err := writeDefaultConfig(configPath, projectName); err != nil {
			return nil, err
		}
		logger.Info("project initialized", "name", projectName, "root", root)
	}

	return Open(root, logger)
}

// setupPaths is the central place defining the project layout. Keys
// containing "file" denote files, all others folders.
func setupPaths(root string) map[string]string {
	return map[string]string{
		"root":        root,
		"data":        filepath.Join(root, "DATA"),
		"events":      filepath.Join(root, "EVENTS"),
		"stations":    filepath.Join(root, "STATIONS"),
		"synthetics":  filepath.Join(root, "SYNTHETICS"),
		"kernels":     filepath.Join(root, "KERNELS"),
		"iterations":  filepath.Join(root, "ITERATIONS"),
		"output":      filepath.Join(root, "OUTPUT"),
		"logs":        filepath.Join(root, "LOGS"),
		"adjoint":     filepath.Join(root, "ADJOINT_SOURCES_AND_WINDOWS"),
		"config_file": filepath.Join(root, configFileName),
	}
}

// updateFolderStructure creates any missing project folders.
func (p *Project) updateFolderStructure() error {
	for name, path := range p.Paths {
		if strings.Contains(name, "file") {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create project folder %q: %w", name, err)
		}
	}
	return nil
}

func writeDefaultConfig(path, projectName string) error {
	cf := configFile{SeismicProject: Settings{
		ProjectName: projectName,
		DownloadSettings: DownloadSettings{
			SecondsBeforeEvent:      300.0,
			SecondsAfterEvent:       3600.0,
			InterstationDistanceInM: 1000.0,
			ChannelPriorities: []string{
				"BH[Z,N,E]", "LH[Z,N,E]", "HH[Z,N,E]", "EH[Z,N,E]", "MH[Z,N,E]",
			},
			LocationPriorities: []string{"", "00", "10", "20", "01", "02"},
		},
	}}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create project config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cf); err != nil {
		return fmt.Errorf("write project config: %w", err)
	}
	return nil
}

// Bootstrap constructs and registers the session's components. The
// data-source components are built before the query resolver because the
// resolver is wired from them directly. The inventory is constructed by the
// caller (it needs service-level configuration) and registered here.
func (p *Project) Bootstrap(inv domain.InventorySource, metrics *observability.Metrics, logger *slog.Logger) (*query.Resolver, error) {
	eventStore := events.NewStore(p.Paths["events"], logger)
	waveformStore := waveforms.NewStore(p.Paths["data"], logger)
	stationStore, err := stations.NewStore(p.Paths["stations"], logger)
	if err != nil {
		return nil, err
	}

	resolver := query.NewResolver(eventStore, waveformStore, stationStore, inv, logger, metrics)

	for _, c := range []struct {
		name      string
		component any
	}{
		{"events", eventStore},
		{"waveforms", waveformStore},
		{"stations", stationStore},
		{"inventory", inv},
		{"query", resolver},
	} {
		if err := p.comm.Register(c.name, c.component); err != nil {
			return nil, err
		}
	}

	p.events = eventStore
	return resolver, nil
}

// Communicator returns the session's component registry.
func (p *Project) Communicator() *registry.Communicator {
	return p.comm
}

// OutputFolder creates and returns a timestamped folder for derived output,
// grouped by kind: OUTPUT/<kind>/<timestamp>__<tag>.
func (p *Project) OutputFolder(kind, tag string) (string, error) {
	stamp := clock.Now().UTC().Format("2006-01-02T15-04-05")
	dir := filepath.Join(p.Paths["output"], strings.ToLower(kind), stamp+"__"+tag)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output folder: %w", err)
	}
	return dir, nil
}

// LogFile returns the path for a new log file under LOGS/<KIND>/, creating
// the folder but not the file.
func (p *Project) LogFile(kind, description string) (string, error) {
	dir := filepath.Join(p.Paths["logs"], strings.ToUpper(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log folder: %w", err)
	}
	stamp := clock.Now().UTC().Format("2006-01-02T15-04-05")
	return filepath.Join(dir, stamp+"___"+description+".log"), nil
}

// CheckReadiness reports whether the project can serve queries: the config
// file and the events folder must both be readable.
func (p *Project) CheckReadiness(_ context.Context) error {
	if _, err := os.Stat(p.Paths["config_file"]); err != nil {
		return fmt.Errorf("project config unreadable: %w", err)
	}
	if _, err := os.Stat(p.Paths["events"]); err != nil {
		return fmt.Errorf("events folder unreadable: %w", err)
	}
	return nil
}

// String is a human-readable project report.
func (p *Project) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seismic project %q\n", p.Config.ProjectName)
	if p.Config.Description != "" {
		fmt.Fprintf(&b, "\tDescription: %s\n", p.Config.Description)
	}
	fmt.Fprintf(&b, "\tProject root: %s\n", p.Root)
	if p.events != nil {
		fmt.Fprintf(&b, "\tContent:\n\t\t%d events\n", p.events.Count())
	}
	return b.String()
}
