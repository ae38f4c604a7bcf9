/*
DESCRIPTION
  loader.go provides loading of streaming components, either from those
  registered with the process or from a Go plugin library.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package component

import (
	"errors"
	"fmt"
	"plugin"
	"sort"
	"sync"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/utils/logging"
)

// FactorySymbol is the name of the factory function a component library
// must export. Its type must be detection.Factory, or the equivalent func
// type.
const FactorySymbol = "NewStreamingComponent"

// Used to indicate package in logging.
const pkg = "component: "

// ErrFactoryNotFound is returned by Load when there is neither a registered
// factory nor a library to load one from.
var ErrFactoryNotFound = errors.New("component factory not found")

var (
	mu        sync.Mutex
	factories = map[string]detection.Factory{}
)

// Register makes a component factory available to Load by name. Register
// panics if a factory is already registered with the name.
func Register(name string, f detection.Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := factories[name]; ok {
		panic("component: factory registered twice: " + name)
	}
	factories[name] = f
}

// Registered returns the names of the registered factories in order.
func Registered() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func registered(name string) (detection.Factory, bool) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := factories[name]
	return f, ok
}

// Spec identifies the component of a job. A component registered under Name
// is used if there is one, otherwise the factory is looked up in the plugin
// library at LibraryPath.
type Spec struct {
	Name        string
	LibraryPath string
}

// Load constructs and initializes the component identified by s for job.
// The component must support video. Any error has code
// exit.ComponentLoadError.
func Load(s Spec, job detection.StreamingJob, log logging.Logger) (*Handle, error) {
	f, err := s.factory(log)
	if err != nil {
		return nil, exit.Wrap(exit.ComponentLoadError, err, "unable to load component")
	}

	c, err := construct(f, job)
	if err != nil {
		return nil, exit.Wrap(exit.ComponentLoadError, err, "unable to construct component")
	}

	err = initialize(c)
	if err != nil {
		return nil, exit.Wrap(exit.ComponentLoadError, err, "unable to initialize component")
	}
	h := NewHandle(c)

	if !supportsVideo(c) {
		h.Close()
		return nil, exit.Wrap(exit.ComponentLoadError, detection.ErrUnsupportedDataType, "component does not support video")
	}
	return h, nil
}

func (s Spec) factory(log logging.Logger) (detection.Factory, error) {
	if s.Name != "" {
		if f, ok := registered(s.Name); ok {
			log.Info(pkg+"using registered component", "name", s.Name)
			return f, nil
		}
	}
	if s.LibraryPath == "" {
		return nil, fmt.Errorf("%w: name %q, no library path", ErrFactoryNotFound, s.Name)
	}

	log.Info(pkg+"loading component library", "path", s.LibraryPath)
	p, err := plugin.Open(s.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("could not open component library: %w", err)
	}
	sym, err := p.Lookup(FactorySymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFactoryNotFound, err)
	}

	// Lookup of an exported func gives the func, of an exported var a
	// pointer to it.
	switch f := sym.(type) {
	case func(detection.StreamingJob) (detection.StreamingComponent, error):
		return f, nil
	case *detection.Factory:
		return *f, nil
	case *func(detection.StreamingJob) (detection.StreamingComponent, error):
		return *f, nil
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrFactoryNotFound, FactorySymbol, sym)
	}
}

func construct(f detection.Factory, job detection.StreamingJob) (c detection.StreamingComponent, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = detection.Classify(v)
		}
	}()
	c, err = f(job)
	if err == nil && c == nil {
		err = errors.New("factory returned no component")
	}
	return c, err
}

func initialize(c detection.StreamingComponent) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = detection.Classify(v)
		}
	}()
	return c.Init()
}

func supportsVideo(c detection.StreamingComponent) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return c.Supports(detection.Video)
}
