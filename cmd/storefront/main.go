// Command storefront browses the product catalog, keeps a cart and checks it
// out from the terminal. `storefront worker` runs the payment event consumer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"gofalre.io/storefront/config"
)

const usage = `usage: storefront [flags] <command>

commands:
  products [query]                 list products, optionally filtered by title
  cart show                        show the cart and its total
  cart add <id> [quantity]         add a product to the cart
  cart remove <id>                 take one unit of a product out of the cart
  cart clear                       empty the cart
  checkout --name --phone --address
                                   submit the cart as an order
  orders                           list your orders
  worker                           process payment events until interrupted

flags:
`

// errUsage is returned for malformed command lines; the usage text has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "storefront:", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var form checkoutFlags
	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	cfg.RegisterFlags(fs)
	form.register(fs)

	if err = fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger, stdout)
	if err != nil {
		return err
	}
	defer a.close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "products":
		return a.products(ctx, rest)
	case "cart":
		return a.cart(ctx, rest, fs.Usage)
	case "checkout":
		return a.checkout(ctx, form)
	case "orders":
		return a.orders(ctx)
	case "worker":
		return a.worker(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return errUsage
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
