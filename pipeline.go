package swfbmp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

func (c *Converter) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() || filepath.Ext(file) != Extension {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Converter) fileWorker(ctx context.Context, in <-chan string, format Format) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			m, err := c.Decode(file)
			if err != nil {
				// Malformed files turn up in the wild, carry on with the rest
				if IsDecodeError(err) {
					c.logger.Printf("Skipping \"%s\": %s\n", file, err)
					continue
				}
				errc <- err
				return
			}

			out := strings.TrimSuffix(file, filepath.Ext(file)) + format.Extension()
			if err := WriteFile(out, m, format); err != nil {
				errc <- err
				return
			}
			c.logger.Printf("Converted \"%s\" to \"%s\"\n", file, out)

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()
	return errc, nil
}

// waitForPipeline returns the first error, calling cancel when it arrives. It
// only returns once every stage has closed its error channel.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path converting every X-SWF-BMP file found into format, writing
// the result alongside the original. Files that fail to decode are logged
// and skipped.
func (c *Converter) Scan(path string, format Format, workers int) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if workers < 1 {
		workers = 1
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < workers; i++ {
		errc, err := c.fileWorker(ctx, files, format)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
