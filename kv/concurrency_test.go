package kv

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/tarmac-project/workerskv/httpclient/mock"
)

func TestClient_Concurrent(t *testing.T) {
	t.Parallel()

	const workers = 50

	c, hc := newTestClient(t, "ns")
	hc.On(http.MethodGet, testURL+"/ns/keys?limit=1000").Return(mock.JSON(http.StatusOK,
		`{"success":true,"result":[{"name":"a"}],"result_info":{"count":1,"cursor":"X"}}`))
	hc.On(http.MethodGet, testURL+"/ns/keys?limit=1000&cursor=X").Return(mock.JSON(http.StatusOK,
		`{"success":true,"result":[{"name":"b"}],"result_info":{"count":1,"cursor":""}}`))
	for i := 0; i < workers; i++ {
		hc.On(http.MethodGet, fmt.Sprintf("%s/ns/values/key-%d", testURL, i)).Return(mock.Text(http.StatusOK, "value-"+strconv.Itoa(i)))
	}

	ctx := context.Background()
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "key-" + strconv.Itoa(i)

			switch i % 3 {
			case 0:
				resp, err := c.WriteKey(ctx, WriteKeyOptions{Key: key, Value: strings.Repeat("v", i+1)})
				if err != nil || !resp.Success {
					errs <- fmt.Errorf("write %s: %v", key, err)
				}
			case 1:
				resp, err := c.ReadKey(ctx, ReadKeyOptions{Key: key})
				if err != nil || resp.String() != "value-"+strconv.Itoa(i) {
					errs <- fmt.Errorf("read %s: %v %v", key, resp, err)
				}
			default:
				resp, err := c.ListAllKeys(ctx, ListAllKeysOptions{})
				if err != nil || resp.ResultInfo.Count != 2 {
					errs <- fmt.Errorf("list all: %v %v", resp, err)
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	// 17 writes, 17 reads and 16 two-page walks.
	calls := hc.Recorded()
	if want := 17 + 17 + 16*2; len(calls) != want {
		t.Fatalf("expected %d requests, got %d", want, len(calls))
	}

	for _, call := range calls {
		if got := call.Header.Values("Authorization"); len(got) != 1 || got[0] != "Bearer token" {
			t.Fatalf("%s %s: expected a single bearer header, got %v", call.Method, call.URL, got)
		}
		if call.Header.Get("X-Auth-Email") != "" || call.Header.Get("X-Auth-Key") != "" {
			t.Fatalf("%s %s: request carries two auth schemes: %v", call.Method, call.URL, call.Header)
		}

		switch call.Method {
		case http.MethodPut:
			if call.Header.Get("Content-Length") != strconv.Itoa(len(call.Body)) {
				t.Fatalf("%s: content length %q does not match body of %d bytes",
					call.URL, call.Header.Get("Content-Length"), len(call.Body))
			}
		default:
			if call.Header.Get("Content-Type") != "" || len(call.Body) != 0 {
				t.Fatalf("%s %s: read request picked up write headers: %v", call.Method, call.URL, call.Header)
			}
		}
	}

	if got := c.runtime.AuthHeaders; len(got) != 1 || got.Get("Authorization") != "Bearer token" {
		t.Fatalf("client headers were modified: %v", got)
	}
	if c.builder.header.Get("Content-Type") != "" {
		t.Fatalf("builder headers were modified: %v", c.builder.header)
	}
}
