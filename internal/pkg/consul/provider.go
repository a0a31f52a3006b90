package consul

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/transcriber"
	tapi "github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/transcriber/api"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/hashicorp/consul/api"
	"go.uber.org/multierr"
)

const (
	transcribeKey = "transcribeURL"
	priorityKey   = "priority"
)

// Provider keeps track of speech to text services registered in consul
type Provider struct {
	consul  *api.Client
	srvName string

	lock *sync.RWMutex
	stts []*sttWrap
}

type sttWrap struct {
	real     tapi.Transcriber
	srv      string
	priority float64
}

// NewProvider creates consul based stt provider
func NewProvider(cfg *api.Config, srvNameInConsul string) (*Provider, error) {
	c, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if srvNameInConsul == "" {
		return nil, fmt.Errorf("no srv name")
	}
	goapp.Log.Info().Str("service", srvNameInConsul).Msg("cfg: srv name in consul")
	return &Provider{consul: c, srvName: srvNameInConsul, lock: &sync.RWMutex{}, stts: make([]*sttWrap, 0)}, nil
}

// Get returns an active stt client selected by priority
func (c *Provider) Get() (tapi.Transcriber, string, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if len(c.stts) == 0 {
		return nil, "", fmt.Errorf("no active stt service")
	}
	if len(c.stts) == 1 {
		t := c.stts[0]
		return t.real, t.srv, nil
	}
	i, err := getRandomByPriority(c.stts)
	if err != nil {
		return nil, "", fmt.Errorf("can't select stt service: %v", err)
	}
	if i < len(c.stts) {
		t := c.stts[i]
		return t.real, t.srv, nil
	}
	return nil, "", fmt.Errorf("no active stt service")
}

func getRandomByPriority(stts []*sttWrap) (int, error) {
	prMax := 0.0
	for _, s := range stts {
		prMax += s.priority
	}
	if prMax < 0.1 {
		return 0, fmt.Errorf("wrong priority sum found %f", prMax)
	}
	rnd := rand.Float64() * prMax
	prMax = 0.0
	for i, s := range stts {
		prMax += s.priority
		if prMax > rnd {
			return i, nil
		}
	}
	return len(stts), nil
}

// StartRegistryLoop updates the service list from consul every checkInterval
func (c *Provider) StartRegistryLoop(ctx context.Context, checkInterval time.Duration) (<-chan struct{}, error) {
	goapp.Log.Info().Msgf("Starting consul service check every %v", checkInterval)
	res := make(chan struct{}, 2)
	go func() {
		defer close(res)
		c.serviceLoop(ctx, checkInterval)
	}()
	return res, nil
}

func (c *Provider) serviceLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	// run on startup
	if err := c.check(ctx); err != nil {
		goapp.Log.Error().Err(err).Send()
	}
	for {
		select {
		case <-ticker.C:
			if err := c.check(ctx); err != nil {
				goapp.Log.Error().Err(err).Send()
			}
		case <-ctx.Done():
			ticker.Stop()
			goapp.Log.Info().Msgf("Stopped consul timer service")
			return
		}
	}
}

func (c *Provider) check(ctx context.Context) error {
	ctxInt, cf := context.WithTimeout(ctx, time.Second*5)
	defer cf()
	srvs, _, err := c.consul.Health().Service(c.srvName, "", true, (&api.QueryOptions{}).WithContext(ctxInt))
	if err != nil {
		return fmt.Errorf("can't invoke consul: %v", err)
	}
	return c.updateSrv(srvs)
}

func (c *Provider) updateSrv(srvs []*api.ServiceEntry) error {
	goapp.Log.Debug().Msgf("got %d services from consul", len(srvs))
	c.lock.Lock()
	defer c.lock.Unlock()
	ms := map[string]*api.ServiceEntry{}
	for _, s := range srvs {
		ms[key(s)] = s
	}
	kept := []*sttWrap{}
	for _, s := range c.stts {
		if _, ok := ms[s.srv]; ok {
			kept = append(kept, s)
			delete(ms, s.srv)
			continue
		}
		goapp.Log.Warn().Str("service", s.srv).Msg("dropped stt service")
	}
	if len(kept) == len(c.stts) && len(ms) == 0 {
		return nil
	}
	c.stts = kept
	var err error
	for v, k := range ms {
		stt, errInt := newSTT(v, k)
		if errInt != nil {
			err = multierr.Append(err, errInt)
			continue
		}
		c.stts = append(c.stts, stt)
		goapp.Log.Info().Str("service", v).Float64("priority", stt.priority).Msg("added stt service")
	}
	return err
}

func newSTT(v string, s *api.ServiceEntry) (*sttWrap, error) {
	stt, err := transcriber.NewClient(getURL(s))
	if err != nil {
		return nil, fmt.Errorf("can't init stt client for %s: %v", v, err)
	}
	priority, err := getPriority(s)
	if err != nil {
		return nil, fmt.Errorf("can't init stt client for %s: %v", v, err)
	}
	return &sttWrap{real: stt, srv: v, priority: priority}, nil
}

func getPriority(s *api.ServiceEntry) (float64, error) {
	v, ok := s.Service.Meta[priorityKey]
	if !ok {
		return 1, nil
	}
	res, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse priority '%s': %v", v, err)
	}
	if res < 0.5 || res > 50 {
		return 0, fmt.Errorf("wrong priority value '%f', not in [0.5, 50]", res)
	}
	return res, nil
}

func getURL(s *api.ServiceEntry) string {
	path, ok := s.Service.Meta[transcribeKey]
	if !ok {
		path = "transcribe"
	}
	return fmt.Sprintf("http://%s:%d/%s", s.Service.Address, s.Service.Port, path)
}

func key(s *api.ServiceEntry) string {
	return fmt.Sprintf("%s:%d", s.Service.Address, s.Service.Port)
}
