package goRedeem_test

import (
	"context"
	"errors"
	"fmt"

	goRedeem "github.com/MrEthical07/goRedeem"
	"github.com/MrEthical07/goRedeem/workflow"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates engine construction from the environment.
func ExampleNew() {
	cfg, err := goRedeem.LoadConfig()
	if err != nil {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Credentials.RedisAddr})

	engine, _ := goRedeem.New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	_ = engine
}

// ExampleAuthSession_Login shows sign-in with structured error handling.
func ExampleAuthSession_Login() {
	var engine *goRedeem.Engine
	_, err := engine.Session().Login(context.Background(), "cashier@example.com", "password")
	switch {
	case errors.Is(err, goRedeem.ErrLoginRateLimited):
		// ask the operator to wait
	case errors.Is(err, goRedeem.ErrInvalidPassword):
		// ask the operator to retype the password
	}
}

// ExampleSessionGate_Enter walks one redemption through the workflow.
func ExampleSessionGate_Enter() {
	var engine *goRedeem.Engine
	ctx := context.Background()

	wf, err := engine.Gate().Enter(ctx)
	if err != nil {
		return
	}
	if _, err := wf.SubmitAmount("12.50"); err != nil {
		return
	}
	snap, err := wf.Scanned(ctx, "GC-001")
	if snap.State == workflow.Failed {
		fmt.Println(snap.Message, err)
	}
}

// ExampleParseAmount shows how operator input becomes minor units.
func ExampleParseAmount() {
	minor, _ := workflow.ParseAmount("$1,234.565")
	fmt.Println(minor, workflow.FormatAmount(minor))
	// Output: 123457 1234.57
}
