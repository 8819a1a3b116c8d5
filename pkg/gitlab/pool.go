package gitlab

import (
	"context"
	"fmt"
)

// Pool is a fixed-size pool of authenticated API hosts for one GitLab
// instance. Its size equals the number of tokens configured for that
// instance and never changes during a run.
//
// Hosts follow a strict checkout/checkin discipline: a checked-out host is
// used by exactly one task at a time and must be returned on every exit
// path, or the remaining tasks for the instance will starve.
type Pool struct {
	hosts chan Host
}

// NewPool builds one authenticated host per token and returns them as a
// pool. Hosts are built sequentially; the first construction failure aborts
// pool creation for the instance.
func NewPool(ctx context.Context, baseURL string, tokens []string, newHost HostFactory) (*Pool, error) {
	hosts := make([]Host, 0, len(tokens))
	for _, token := range tokens {
		host, err := newHost(ctx, baseURL, token)
		if err != nil {
			return nil, fmt.Errorf("build client for %s: %w", baseURL, err)
		}
		hosts = append(hosts, host)
	}

	p := &Pool{hosts: make(chan Host, len(hosts))}
	for _, host := range hosts {
		p.hosts <- host
	}
	return p, nil
}

// Size returns the pool's fixed capacity.
func (p *Pool) Size() int {
	return cap(p.hosts)
}

// Checkout blocks until a host becomes available or ctx is done.
func (p *Pool) Checkout(ctx context.Context) (Host, error) {
	select {
	case host := <-p.hosts:
		return host, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Checkin returns a previously checked-out host to the pool.
func (p *Pool) Checkin(host Host) {
	p.hosts <- host
}
