package fetch

import (
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Kind selects the default header set for a request.
type Kind int

const (
	KindHTML Kind = iota
	KindJSON
	KindGraphQL
)

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptJSON = "application/json"
)

func defaultHeaders(kind Kind, ua string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", ua)
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8,ja;q=0.7")
	h.Set("DNT", "1")

	switch kind {
	case KindJSON, KindGraphQL:
		h.Set("Accept", acceptJSON)
		h.Set("Content-Type", "application/json")
	default:
		h.Set("Accept", acceptHTML)
		h.Set("Upgrade-Insecure-Requests", "1")
	}
	return h
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
