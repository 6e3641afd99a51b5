package nhslogin_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyhahn/go-nhslogin/pkg/kvstore"
	"github.com/jeremyhahn/go-nhslogin/pkg/messaging"
	"github.com/jeremyhahn/go-nhslogin/pkg/nhslogin"
)

type browserLauncher struct{}

func (browserLauncher) Launch(_ context.Context, url string, _ nhslogin.PresentationMode, _ any) error {
	fmt.Println("open", url)
	return nil
}

func ExampleNew() {
	c, err := nhslogin.New(&nhslogin.Config{
		Store:     kvstore.NewMemory(),
		Launcher:  browserLauncher{},
		Messaging: messaging.Factory{},
		Logger:    zap.NewExample(),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		log.Fatal(err)
	}

	if !c.ReadyToAuthorise() {
		if err := c.UpdateEnvironment(ctx, "https://relay.example.com", nhslogin.Sandpit()); err != nil {
			log.Fatal(err)
		}
	}

	attempt, err := c.Authorize(ctx, nhslogin.PresentBrowser, nil)
	if err != nil {
		log.Fatal(err)
	}

	// The host delivers the deep link here when the browser redirects back.
	go c.HandleRedirect(ctx, "nhsapp://callback?code=...")

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	session, err := attempt.Wait(waitCtx)
	if err != nil {
		log.Printf("login failed: %v", err)
		return
	}
	fmt.Println("signed in as", session.Claims.Subject)
}

func ExampleBuildAuthorizeURL() {
	cfg := nhslogin.DefaultAuthConfiguration()
	cfg.Scopes = []string{"openid", "profile", "email"}

	fmt.Println(nhslogin.BuildAuthorizeURL(cfg))
	// Output: https://auth.sandpit.signin.nhs.uk/authorize?client_id=du-nhs-login&scope=openid%20profile%20email&response_type=code&redirect_uri=https://du-nhs-login.herokuapp.com/code
}

func ExampleEncodeUAFResponse() {
	encoded, err := nhslogin.EncodeUAFResponse(`{"uafProtocolMessage": "[{}]"}`)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(encoded)
	// Output: Ilt7fV0i
}
