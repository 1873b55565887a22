// Package report renders dashboards from a findings snapshot. Formats share
// a registry so the report command can produce several outputs from one
// snapshot load.
package report

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/pkg/logger"
)

// Format represents a dashboard rendering strategy.
type Format interface {
	// Generate renders the snapshot to outputPath.
	Generate(snap *models.Snapshot, outputPath string) error
	// Name returns the format identifier (e.g. "html", "json", "csv").
	Name() string
	// Extension returns the output file extension, including the dot.
	Extension() string
	// Description returns a human-readable description of the format.
	Description() string
}

// Options carries the shared configuration formats need.
type Options struct {
	Logger logger.Logger
	// AppBaseURL is the vendor app root used for click-through finding links.
	AppBaseURL string
	// Title is shown at the top of rendered dashboards.
	Title string
	// Now supplies the clock for the recent-findings window; nil means
	// time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

func (o Options) logger() logger.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.GetGlobalLogger()
}

// FormatFactory creates instances of report formats.
type FormatFactory func(opts Options) (Format, error)

var (
	formatRegistry = make(map[string]FormatFactory)
	registryMutex  sync.RWMutex
)

// RegisterFormat registers a new report format factory.
func RegisterFormat(name string, factory FormatFactory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if factory == nil {
		panic(fmt.Sprintf("report: RegisterFormat factory is nil for format %q", name))
	}
	if _, dup := formatRegistry[name]; dup {
		panic(fmt.Sprintf("report: RegisterFormat called twice for format %q", name))
	}
	formatRegistry[name] = factory
}

// GetFormat creates an instance of the specified report format.
func GetFormat(name string, opts Options) (Format, error) {
	registryMutex.RLock()
	factory, exists := formatRegistry[name]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown report format: %s", name)
	}
	return factory(opts)
}

// ListFormats returns all registered format names, sorted.
func ListFormats() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	names := make([]string, 0, len(formatRegistry))
	for name := range formatRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
