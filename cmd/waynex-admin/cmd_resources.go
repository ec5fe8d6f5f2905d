package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/waynex/admin/internal/adminapi"
)

func addListFlags(cmd *cobra.Command, p *adminapi.ListParams) {
	cmd.Flags().IntVar(&p.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&p.Limit, "limit", adminapi.DefaultPageLimit, "Rows per page")
	cmd.Flags().StringVar(&p.Query, "q", "", "Search text")
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show overall statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := load[adminapi.DashboardStats](cmd.Context(), a.fetcher, adminapi.AnalyticsKey())
			if err != nil {
				return err
			}
			renderDashboard(out(cmd), stats)
			return nil
		},
	}
}

func newCustomersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"users"},
		Short:   "Browse customers",
	}

	var params adminapi.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := load[adminapi.UsersResponse](cmd.Context(), a.fetcher, adminapi.UsersKey(params))
			if err != nil {
				return err
			}
			renderUsers(out(cmd), resp, params.Normalized().Limit, "customers")
			return nil
		},
	}
	addListFlags(list, &params)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a customer with their shipments and payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			detail, err := load[adminapi.UserDetail](cmd.Context(), a.fetcher, adminapi.UserKey(id))
			if err != nil {
				return err
			}
			renderUserDetail(out(cmd), detail)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func newEmployeesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Manage employee accounts",
	}

	var params adminapi.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := load[adminapi.UsersResponse](cmd.Context(), a.fetcher, adminapi.EmployeesKey(params))
			if err != nil {
				return err
			}
			renderUsers(out(cmd), resp, params.Normalized().Limit, "employees")
			return nil
		},
	}
	addListFlags(list, &params)

	var emp adminapi.NewEmployee
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an employee account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if emp.Password == "" {
				pw, err := readPassword(cmd, newLineReader(cmd))
				if err != nil {
					return err
				}
				emp.Password = pw
			}
			if err := a.svc.CreateEmployee(cmd.Context(), emp); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Employee %s created\n", emp.Email)
			return nil
		},
	}
	add.Flags().StringVar(&emp.FirstName, "first-name", "", "First name")
	add.Flags().StringVar(&emp.LastName, "last-name", "", "Last name")
	add.Flags().StringVar(&emp.Email, "email", "", "Email")
	add.Flags().StringVar(&emp.Password, "password", "", "Initial password (prompted when omitted)")

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an employee account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteEmployee(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Employee %d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func newShipmentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shipments",
		Short: "Browse shipments",
	}

	var params adminapi.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List shipments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := load[adminapi.ShipmentsResponse](cmd.Context(), a.fetcher, adminapi.ShipmentsKey(params))
			if err != nil {
				return err
			}
			renderShipments(out(cmd), resp, params.Normalized().Limit)
			return nil
		},
	}
	addListFlags(list, &params)

	cmd.AddCommand(list)
	return cmd
}

func newPaymentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Review manual payment requests",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List payment requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payments, err := load[[]adminapi.PaymentRequest](cmd.Context(), a.fetcher, adminapi.PaymentsKey())
			if err != nil {
				return err
			}
			renderPayments(out(cmd), payments)
			return nil
		},
	}

	setStatus := func(use, short string, status adminapi.PaymentStatus) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.svc.SetPaymentStatus(cmd.Context(), id, status); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "Payment %d %s\n", id, status)
				return nil
			},
		}
	}

	cmd.AddCommand(
		list,
		setStatus("approve", "Approve a payment request", adminapi.PaymentApproved),
		setStatus("reject", "Reject a payment request", adminapi.PaymentRejected),
	)
	return cmd
}

func newCodesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "codes",
		Aliases: []string{"balance-codes"},
		Short:   "Manage balance top-up codes",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List balance codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := adminapi.ParseCodeStatus(status)
			if err != nil {
				return err
			}
			codes, err := load[[]adminapi.BalanceCode](cmd.Context(), a.fetcher, adminapi.BalanceCodesKey(st))
			if err != nil {
				return err
			}
			renderCodes(out(cmd), codes)
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "all", "Filter: all, active or redeemed")

	var amount float64
	create := &cobra.Command{
		Use:   "create",
		Short: "Generate a balance code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := a.svc.CreateBalanceCode(cmd.Context(), amount)
			if err != nil {
				return err
			}
			if code != nil && code.Code != "" {
				fmt.Fprintf(out(cmd), "Created code %s worth %s\n", code.Code, formatINR(code.Amount, 2))
			} else {
				fmt.Fprintln(out(cmd), "Balance code created")
			}
			return nil
		},
	}
	create.Flags().Float64Var(&amount, "amount", 0, "Amount in rupees")

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a balance code",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteBalanceCode(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Balance code %d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func newRatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Manage international rates",
	}

	var percent, flat string
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an international rate sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open rate sheet: %w", err)
			}
			defer f.Close()

			res, err := a.svc.UploadInternationalRates(cmd.Context(), adminapi.RateUpload{
				Filename: filepath.Base(args[0]),
				Content:  f,
				Percent:  percent,
				Flat:     flat,
			})
			if err != nil {
				return err
			}
			renderRateUpload(out(cmd), res)
			return nil
		},
	}
	upload.Flags().StringVar(&percent, "percent", "", "Increase rates by this percentage")
	upload.Flags().StringVar(&flat, "flat", "", "Increase rates by this flat amount in rupees")

	cmd.AddCommand(upload)
	return cmd
}
