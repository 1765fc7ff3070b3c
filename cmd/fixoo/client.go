package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/errs"
	"github.com/fixoo-app/fixoo/internal/model"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// currentUser returns the active session user or errNotLoggedIn.
func (a *app) currentUser(ctx context.Context) (*model.User, error) {
	if !a.sessions.IsAuthenticated(ctx) {
		return nil, errNotLoggedIn
	}
	u := a.sessions.CurrentUser(ctx)
	if u == nil {
		return nil, errNotLoggedIn
	}
	return u, nil
}

// printUser reloads id from the entity store and prints it.
func (a *app) printUser(ctx context.Context, id string) error {
	u, ok := a.store.UserByID(ctx, id)
	if !ok {
		return fmt.Errorf("user %s: %w", id, errs.ErrNotFound)
	}
	return a.printJSON(convert.ToUserView(*u))
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	var u model.User
	var typ string
	fs.StringVar(&u.Phone, "phone", "", "phone number")
	fs.StringVar(&u.Password, "password", "", "password")
	fs.StringVar(&typ, "type", string(model.UserTypeClient), "client|specialist")
	fs.StringVar(&u.Name, "name", "", "first name")
	fs.StringVar(&u.Surname, "surname", "", "last name")
	fs.StringVar(&u.City, "city", "", "city")
	fs.StringVar(&u.Specialization, "specialization", "", "specialist trade")
	fs.StringVar(&u.Experience, "experience", "", "specialist experience")
	fs.StringVar(&u.Description, "description", "", "about")
	fs.StringVar(&u.Language, "language", "", "UI language")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u.Type = model.UserType(typ)
	if u.Phone == "" || u.Password == "" {
		return errors.New("need -phone and -password")
	}
	if !u.Type.Valid() {
		return fmt.Errorf("unknown -type %q", typ)
	}
	u.Available = u.Type == model.UserTypeSpecialist

	created, err := a.sessions.Register(ctx, u)
	if err != nil {
		return err
	}
	return a.printJSON(convert.ToUserView(*created))
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	phone := fs.String("phone", "", "phone number")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *phone == "" {
		return errors.New("need -phone")
	}
	u, ok := a.sessions.Login(ctx, *phone, *password)
	if !ok {
		return errors.New("invalid phone or password")
	}
	return a.printJSON(convert.ToUserView(*u))
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if !a.sessions.Logout(ctx) {
		return errors.New("logout failed")
	}
	_, err := fmt.Fprintln(a.out, "ok")
	return err
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(convert.ToUserView(*u))
}

func cmdSpecialists(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("specialists")
	onlyAvailable := fs.Bool("available", false, "only available specialists")
	if err := fs.Parse(args); err != nil {
		return err
	}
	out := []model.User{}
	for _, s := range a.store.ListSpecialists(ctx) {
		if !*onlyAvailable || s.Available {
			out = append(out, s)
		}
	}
	return a.printJSON(convert.ToUserViews(out))
}

func cmdOrderCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("order-create")
	specialist := fs.String("specialist", "", "specialist id")
	description := fs.String("description", "", "what needs doing")
	location := fs.String("location", "", "where")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	if u.Type != model.UserTypeClient {
		return errors.New("only clients can create orders")
	}
	if *specialist == "" || *description == "" {
		return errors.New("need -specialist and -description")
	}
	o := convert.CreateOrderRequest{
		ClientID:     u.ID,
		SpecialistID: *specialist,
		Description:  *description,
		Location:     *location,
	}.ToOrder()
	if !a.store.SaveOrder(ctx, &o) {
		return errors.New("could not save order")
	}
	return a.printJSON(o)
}

func cmdOrders(ctx context.Context, a *app, _ []string) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(a.store.OrdersFor(ctx, u.Type, u.ID))
}

func cmdPending(ctx context.Context, a *app, _ []string) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	if u.Type != model.UserTypeSpecialist {
		return errors.New("only specialists have pending orders")
	}
	return a.printJSON(a.store.PendingOrdersForSpecialist(ctx, u.ID))
}

func cmdOrderStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("order-status")
	id := fs.String("id", "", "order id")
	status := fs.String("status", "", "accepted|rejected|completed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	o, ok := a.store.OrderByID(ctx, *id)
	if !ok {
		return fmt.Errorf("order %q: %w", *id, errs.ErrNotFound)
	}
	if err := checkTransition(u, o, model.OrderStatus(*status)); err != nil {
		return err
	}
	if !a.store.SetOrderStatus(ctx, *id, model.OrderStatus(*status)) {
		return fmt.Errorf("could not set status %q", *status)
	}
	o, _ = a.store.OrderByID(ctx, *id)
	return a.printJSON(o)
}

// checkTransition enforces who may move an order where. Only the order's
// specialist decides a pending order (accepted or rejected); no order goes
// back to pending; either party may mark it completed.
func checkTransition(u *model.User, o *model.Order, to model.OrderStatus) error {
	if o.SpecialistID != u.ID && o.ClientID != u.ID {
		return fmt.Errorf("order %s belongs to someone else: %w", o.ID, errs.ErrUnauthorized)
	}
	switch to {
	case model.OrderAccepted, model.OrderRejected:
		if o.SpecialistID != u.ID {
			return fmt.Errorf("only the specialist can set %s: %w", to, errs.ErrUnauthorized)
		}
		if o.Status != model.OrderPending {
			return fmt.Errorf("order %s is already %s: %w", o.ID, o.Status, errs.ErrValidation)
		}
	case model.OrderCompleted:
	case model.OrderPending:
		return fmt.Errorf("order %s cannot go back to pending: %w", o.ID, errs.ErrValidation)
	default:
		return fmt.Errorf("unknown status %q: %w", to, errs.ErrValidation)
	}
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("profile")
	fields := map[string]*string{}
	for _, name := range []string{"name", "surname", "city", "specialization", "experience", "description", "avatar", "language", "password"} {
		fields[name] = fs.String(name, "", name)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	patch := model.UserPatch{ID: u.ID}
	set := map[string]*string{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = fields[f.Name] })
	patch.Name = set["name"]
	patch.Surname = set["surname"]
	patch.City = set["city"]
	patch.Specialization = set["specialization"]
	patch.Experience = set["experience"]
	patch.Description = set["description"]
	patch.Avatar = set["avatar"]
	patch.Language = set["language"]
	patch.Password = set["password"]
	if patch.Empty() {
		return errors.New("nothing to update")
	}
	if !a.store.SaveUserProfile(ctx, patch) {
		return errors.New("could not save profile")
	}
	return a.printUser(ctx, u.ID)
}

func cmdAvailability(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("availability")
	on := fs.Bool("on", true, "available for new orders")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	if !a.store.SetSpecialistAvailability(ctx, u.ID, *on) {
		return errors.New("only specialists can change availability")
	}
	return a.printUser(ctx, u.ID)
}

func cmdDeleteAccount(ctx context.Context, a *app, _ []string) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	if !a.store.DeleteUserAccount(ctx, u.ID) {
		return errors.New("could not delete account")
	}
	_, err = fmt.Fprintln(a.out, "deleted")
	return err
}
