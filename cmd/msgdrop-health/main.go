// Command msgdrop-health probes a running server's health endpoint and
// exits nonzero when it is unreachable or unhealthy. Intended for container
// healthchecks where a full HTTP client stack is overkill.
package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

// probeURL rewrites the target's path to /readyz when requested, keeping the
// scheme and host the caller pointed at.
func probeURL(target string, ready bool) string {
	if !ready {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.Path = "/readyz"
	return u.String()
}

func main() {
	target := flag.String("target", "http://127.0.0.1:8080/healthz", "health endpoint to probe")
	timeout := flag.Duration("timeout", 3*time.Second, "probe timeout")
	ready := flag.Bool("ready", false, "probe /readyz instead of /healthz")
	flag.Parse()

	endpoint := probeURL(*target, *ready)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodGet)

	client := &fasthttp.Client{
		ReadTimeout:  *timeout,
		WriteTimeout: *timeout,
	}
	if err := client.DoTimeout(req, resp, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "unhealthy: status %d\n", resp.StatusCode())
		os.Exit(1)
	}
	fmt.Printf("%s\n", resp.Body())
}
