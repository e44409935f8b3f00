package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"galleryserver/internal/api"
	"galleryserver/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v2"
)

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "manage gallery users",
		Subcommands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "interactively add a user",
				Action: addUser,
			},
		},
	}
}

// newUserInput is the answers of the add user form.
type newUserInput struct {
	AdminUsername string
	AdminPassword string
	Username      string
	Email         string
	Password      string
	DisplayName   string
	Role          model.Role
}

func (in newUserInput) user() model.NewUser {
	return model.NewUser{
		Username:    strings.TrimSpace(in.Username),
		Email:       strings.TrimSpace(in.Email),
		Password:    in.Password,
		DisplayName: optional(strings.TrimSpace(in.DisplayName)),
		Role:        in.Role,
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func addUser(ctx *cli.Context) error {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return fmt.Errorf("inspect stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 {
		return errors.New("adding users requires a terminal")
	}

	in := newUserInput{Role: model.RolePublic}

	roles := make([]huh.Option[model.Role], 0, len(model.Roles))
	for _, role := range model.Roles {
		roles = append(roles, huh.NewOption(string(role), role))
	}

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Admin username").
				Value(&in.AdminUsername).
				Validate(required("admin username")),
			huh.NewInput().
				Title("Admin password").
				EchoMode(huh.EchoModePassword).
				Value(&in.AdminPassword).
				Validate(required("admin password")),
		).Title("Sign in"),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				CharLimit(maxUsernameLength).
				Value(&in.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Email").
				Value(&in.Email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&in.Password).
				Validate(required("password")),
			huh.NewInput().
				Title("Display name").
				Description("Optional.").
				CharLimit(maxDisplayNameLength).
				Value(&in.DisplayName),
			huh.NewSelect[model.Role]().
				Title("Role").
				Options(roles...).
				Value(&in.Role),
		).Title("New user"),
	).Run()
	if err != nil {
		return fmt.Errorf("run add user form: %w", err)
	}

	client, err := api.New(ctx.String("api-base-url"), &http.Client{Timeout: ctx.Duration("http-timeout")})
	if err != nil {
		return err
	}

	user, err := createUser(ctx.Context, client, in)
	if err != nil {
		return err
	}

	fmt.Printf("Added %s (%s) as %s.\n", user.Username, user.ID, user.Role)
	return nil
}

// createUser signs in as the admin, adds the user, and ends the admin session.
func createUser(ctx context.Context, client *api.Client, in newUserInput) (*model.User, error) {
	login, err := client.Login(ctx, strings.TrimSpace(in.AdminUsername), in.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	ctx = api.WithSessionToken(ctx, login.Token)
	defer client.Logout(ctx)

	admin := login.User
	if admin == nil {
		info, err := client.SiteInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("load admin account: %w", err)
		}
		admin = info.User
	}
	if !model.CanAdmin(admin) {
		return nil, fmt.Errorf("%s is not an admin", in.AdminUsername)
	}

	user, err := client.AddUser(ctx, in.user())
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	return user, nil
}
