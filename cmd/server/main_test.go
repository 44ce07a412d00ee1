package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestServeDrainsInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	var finished atomic.Bool
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(300 * time.Millisecond)
		finished.Store(true)
		io.WriteString(w, "done")
	})}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- serve(ctx, server, ln, 5*time.Second) }()

	type result struct {
		status int
		err    error
	}
	resp := make(chan result, 1)
	go func() {
		r, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			resp <- result{err: err}
			return
		}
		r.Body.Close()
		resp <- result{status: r.StatusCode}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}
	cancel()

	if err := <-served; err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !finished.Load() {
		t.Error("serve returned before the in-flight request finished")
	}
	if r := <-resp; r.err != nil || r.status != http.StatusOK {
		t.Errorf("in-flight request: status=%d err=%v", r.status, r.err)
	}
}

func TestServeDrainTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- serve(ctx, server, ln, 50*time.Millisecond) }()
	go func() {
		if r, err := http.Get("http://" + ln.Addr().String() + "/stuck"); err == nil {
			r.Body.Close()
		}
	}()

	<-started
	cancel()

	select {
	case err := <-served:
		if err == nil {
			t.Error("serve returned nil, want a shutdown deadline error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not give up after the drain timeout")
	}
}
