package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jeremyhahn/go-nhslogin/pkg/nhslogin"
)

// printLauncher "launches" an authorize URL by printing it for the user.
type printLauncher struct {
	out io.Writer
}

func (l printLauncher) Launch(_ context.Context, url string, mode nhslogin.PresentationMode, _ any) error {
	_, err := fmt.Fprintf(l.out, "Open this URL (%s) and sign in:\n\n  %s\n\n", mode, url)
	return err
}

// fileAssertion serves a UAF authentication response captured from a device.
type fileAssertion struct {
	path string
}

func (f fileAssertion) Available(context.Context) (bool, error) {
	_, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (f fileAssertion) Authenticate(context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
