package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/catalog"
	"gofalre.io/storefront/checkout"
	"gofalre.io/storefront/models"
)

// errReported marks failures whose message has already been shown.
var errReported = errors.New("reported")

type checkoutFlags struct {
	name    string
	phone   string
	address string
}

func (f *checkoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "checkout: full name")
	fs.StringVar(&f.phone, "phone", "", "checkout: phone number, e.g. +14155550123")
	fs.StringVar(&f.address, "address", "", "checkout: delivery address")
}

func (f *checkoutFlags) form() checkout.Form {
	return checkout.Form{Name: f.name, PhoneNumber: f.phone, Address: f.address}
}

func (a *app) products(ctx context.Context, args []string) error {
	products, err := a.catalogSource(ctx).ListProducts(ctx)
	if err != nil {
		a.printf("%s\n", catalog.FailureMessage)
		return fmt.Errorf("%w: %w", errReported, err)
	}

	query := strings.Join(args, " ")
	matched := catalog.Search(products, query)
	if len(matched) == 0 {
		a.printf("No products found.\n")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE")
	for _, p := range matched {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Title, a.money.format(p.Price))
	}
	return w.Flush()
}

func (a *app) cart(ctx context.Context, args []string, usage func()) error {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "show":
		a.printCart(a.cartStore(ctx))
		return nil

	case "add":
		if len(args) < 1 || len(args) > 2 {
			usage()
			return errUsage
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		quantity := 1
		if len(args) == 2 {
			if quantity, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
		}

		products, err := a.catalogSource(ctx).ListProducts(ctx)
		if err != nil {
			a.printf("%s\n", catalog.FailureMessage)
			return fmt.Errorf("%w: %w", errReported, err)
		}
		product, ok := catalog.Find(products, id)
		if !ok {
			return fmt.Errorf("product %d not found", id)
		}

		store := a.cartStore(ctx)
		if err = store.Add(ctx, product, quantity); err != nil {
			return err
		}
		a.printf("Added %s to the cart.\n", product.Title)
		a.printCart(store)
		return nil

	case "remove":
		if len(args) != 1 {
			usage()
			return errUsage
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		store := a.cartStore(ctx)
		if err = store.Remove(ctx, id); err != nil {
			return err
		}
		a.printCart(store)
		return nil

	case "clear":
		if err := a.cartStore(ctx).Clear(ctx); err != nil {
			return err
		}
		a.printf("Cart cleared.\n")
		return nil

	default:
		usage()
		return errUsage
	}
}

func (a *app) printCart(store *cart.Store) {
	lines, total := store.Snapshot()
	if len(lines) == 0 {
		a.printf("Your cart is empty.\n")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.ProductID, l.Title, a.money.format(l.UnitPrice), l.Quantity, a.money.format(l.Subtotal()))
	}
	fmt.Fprintf(w, "\t\t\tTotal:\t%s\n", a.money.format(total))
	_ = w.Flush()
}

// lazySink connects to postgres only once an order is actually submitted.
type lazySink struct {
	app *app
}

func (s lazySink) SubmitOrder(ctx context.Context, record *models.CheckoutRecord) (*models.CheckoutRecord, error) {
	svc, err := s.app.shopService(ctx)
	if err != nil {
		return nil, err
	}
	return svc.SubmitOrder(ctx, record)
}

func (a *app) checkout(ctx context.Context, flags checkoutFlags) error {
	svc := checkout.NewService(a.cartStore(ctx), a.sessions(ctx), lazySink{app: a}, a.money.stripeCurrency(), a.logger)

	if _, err := svc.Ready(ctx); err != nil {
		a.printf("%s\n", checkout.Message(err))
		return fmt.Errorf("%w: %w", errReported, err)
	}

	record, err := svc.Submit(ctx, flags.form())
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				a.printf("%s: %s\n", f.Field, f.Message)
			}
		} else {
			a.printf("%s\n", checkout.Message(err))
		}
		return fmt.Errorf("%w: %w", errReported, err)
	}

	a.printf("%s Order #%d placed for %s.\n", checkout.MessageSuccess, record.ID, record.TotalPrice)
	return nil
}

func (a *app) orders(ctx context.Context) error {
	sess, err := a.sessions(ctx).CurrentSession(ctx)
	if err != nil {
		a.printf("%s\n", checkout.MessageNotSignedIn)
		return fmt.Errorf("%w: %w", errReported, err)
	}

	svc, err := a.shopService(ctx)
	if err != nil {
		return err
	}
	records, err := svc.ListCheckouts(ctx, sess.Email, 0, 0)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.printf("No orders yet.\n")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tPLACED\tSTATUS\tITEMS\tTOTAL")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Status, len(r.Items), r.TotalPrice, strings.ToUpper(string(r.Currency)))
	}
	return w.Flush()
}

func (a *app) worker(ctx context.Context) error {
	svc, err := a.shopService(ctx)
	if err != nil {
		return err
	}
	if err = svc.Listen(ctx, a.cfg.Workers); err != nil {
		return err
	}

	a.logger.Info("Processing payment events", zap.Int("workers", a.cfg.Workers))
	<-ctx.Done()
	a.logger.Info("Shutting down")
	return nil
}
