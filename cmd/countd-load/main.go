// countd-load 对countd施压,结束后校验每个key的计数等于成功的POST次数
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	vh "github.com/tckz/vegetahelper"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"golang.org/x/sync/errgroup"

	c "github.com/d0ngw/countd/common"
	"github.com/d0ngw/countd/counter"
	h "github.com/d0ngw/countd/http"
)

var (
	optRate = &vh.RateFlag{
		Rate: &vegeta.Rate{
			Freq: 50,
			Per:  1 * time.Second,
		}}
	optTarget   = flag.String("target", "http://127.0.0.1:8080", "countd base url")
	optKeys     = flag.Int("keys", 10, "Number of distinct keys")
	optPrefix   = flag.String("prefix", "", "Key prefix, a random one is used when empty")
	optDuration = flag.Duration("duration", 10*time.Second, "Duration of the test [0 = forever]")
	optOutput   = flag.String("output", "", "/path/to/results.bin or 'stdout'")
	optWorkers  = flag.Uint64("workers", vegeta.DefaultWorkers, "Number of workers")
	optLogLevel = flag.String("log-level", "info", "debug|info|warn|error")
)

type nopWriteCloser struct {
	io.Writer
}

func (w nopWriteCloser) Close() error {
	return nil
}

func openResultFile(out string) (io.WriteCloser, error) {
	switch out {
	case "":
		return &nopWriteCloser{io.Discard}, nil
	case "stdout":
		return &nopWriteCloser{os.Stdout}, nil
	default:
		return os.Create(out)
	}
}

// keyStat 一个key上成功与失败的POST次数
type keyStat struct {
	id      string
	success int64
	fail    int64
}

func newKeys(prefix string, n int) []*keyStat {
	if prefix == "" {
		prefix = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	keys := make([]*keyStat, n)
	for i := range keys {
		keys[i] = &keyStat{id: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return keys
}

func keyURL(target, id string) string {
	return strings.TrimRight(target, "/") + "/" + url.PathEscape(id)
}

// verify 比较服务端的计数与客户端记录的成功次数,返回不一致的key数
func verify(ctx context.Context, client *http.Client, target string, keys []*keyStat) (int, error) {
	var mismatch int64
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for _, k := range keys {
		eg.Go(func() error {
			success := atomic.LoadInt64(&k.success)
			var entry counter.Entry
			err := h.GetJSON(ctx, client, keyURL(target, k.id), &entry)
			if err != nil {
				if h.IsStatus(err, http.StatusNotFound) && success == 0 {
					return nil
				}
				return fmt.Errorf("fetch %s: %w", k.id, err)
			}
			fail := atomic.LoadInt64(&k.fail)
			// 失败的请求可能已经在服务端提交
			if entry.Count < success || entry.Count > success+fail {
				c.Errorf("key:%s count:%d success:%d fail:%d", k.id, entry.Count, success, fail)
				atomic.AddInt64(&mismatch, 1)
			} else {
				c.Debugf("key:%s count:%d", k.id, entry.Count)
			}
			return nil
		})
	}
	err := eg.Wait()
	return int(mismatch), err
}

func run() error {
	if *optKeys <= 0 {
		return fmt.Errorf("invalid keys %d", *optKeys)
	}
	if err := (&c.LogConfig{Level: *optLogLevel}).Parse(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	keys := newKeys(*optPrefix, *optKeys)
	c.Infof("target:%s keys:%d prefix:%s", *optTarget, len(keys), strings.TrimSuffix(keys[0].id, "-0"))

	atk := vh.NewAttacker(func(ctx context.Context) (result *vh.HitResult, retErr error) {
		k := keys[rand.Intn(len(keys))]
		if _, _, err := h.PostURL(ctx, client, keyURL(*optTarget, k.id), nil, "", nil); err != nil {
			atomic.AddInt64(&k.fail, 1)
			return nil, err
		}
		atomic.AddInt64(&k.success, 1)
		return result, nil
	}, vh.WithWorkers(*optWorkers))
	res := atk.Attack(ctx, *optRate.Rate, *optDuration, "countd")

	out, err := openResultFile(*optOutput)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := vegeta.NewEncoder(out)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var metrics vegeta.Metrics
loop:
	for {
		select {
		case s := <-sig:
			c.Infof("Received signal: %s", s)
			cancel()
			// keep loop until 'res' is closed.
		case r, ok := <-res:
			if !ok {
				break loop
			}
			metrics.Add(r)
			if err := enc.Encode(r); err != nil {
				c.Errorf("Encode: %v", err)
				break loop
			}
		}
	}
	metrics.Close()

	var success, fail int64
	for _, k := range keys {
		success += k.success
		fail += k.fail
	}
	c.Infof("requests:%s success:%s fail:%s rate:%.2f/s mean:%s p99:%s",
		humanize.Comma(int64(metrics.Requests)), humanize.Comma(success), humanize.Comma(fail),
		metrics.Rate, metrics.Latencies.Mean, metrics.Latencies.P99)

	verifyCtx, verifyCancel := context.WithTimeout(context.Background(), time.Minute)
	defer verifyCancel()
	mismatch, err := verify(verifyCtx, client, *optTarget, keys)
	if err != nil {
		return err
	}
	if mismatch > 0 {
		return fmt.Errorf("%d of %d keys have unexpected count", mismatch, len(keys))
	}
	c.Infof("all %d keys verified", len(keys))
	return nil
}

func main() {
	flag.Var(optRate, "rate", "Number of requests per time unit")
	flag.Parse()
	if err := c.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "*** load .env: %v\n", err)
	}

	err := run()
	c.SyncLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "*** %v\n", err)
		os.Exit(1)
	}
}
