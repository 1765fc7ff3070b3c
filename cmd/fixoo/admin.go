package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/model"
)

func cmdAdminLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("admin-login")
	user := fs.String("u", "", "admin username")
	pass := fs.String("p", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *pass == "" {
		return errors.New("need -u and -p")
	}
	admin, err := a.adminClient().Login(ctx, *user, *pass)
	if err != nil {
		return err
	}
	return a.printJSON(admin)
}

func cmdAdminLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.adminClient().Logout(ctx); err != nil {
		// the local session is gone either way
		a.log.Warn("admin logout: server call failed", zap.Error(err))
		_, _ = fmt.Fprintln(a.out, "logged out locally")
		return nil
	}
	_, err := fmt.Fprintln(a.out, "ok")
	return err
}

func cmdAdminUsers(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("admin-users")
	typ := fs.String("type", "", "client|specialist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	users, err := a.adminClient().ListUsers(ctx, model.UserType(*typ))
	if err != nil {
		return err
	}
	return a.printJSON(convert.ToUserViews(users))
}

func cmdAdminOrders(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("admin-orders")
	var status string
	var f convert.OrderFilter
	fs.StringVar(&status, "status", "", "order status")
	fs.StringVar(&f.ClientID, "client", "", "client id")
	fs.StringVar(&f.SpecialistID, "specialist", "", "specialist id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.Status = model.OrderStatus(status)
	orders, err := a.adminClient().ListOrders(ctx, f)
	if err != nil {
		return err
	}
	return a.printJSON(orders)
}

func cmdAdminOrderStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("admin-order-status")
	id := fs.String("id", "", "order id")
	status := fs.String("status", "", "pending|accepted|rejected|completed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *status == "" {
		return errors.New("need -id and -status")
	}
	o, err := a.adminClient().UpdateOrderStatus(ctx, *id, model.OrderStatus(*status))
	if err != nil {
		return err
	}
	return a.printJSON(o)
}

func cmdAdminStats(ctx context.Context, a *app, _ []string) error {
	st, err := a.adminClient().Statistics(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(st)
}
