package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Despacho-api/pkg/dailycode"
	pkgjwt "github.com/jhoicas/Despacho-api/pkg/jwt"
)

func newCodeCmd(e *env) *cobra.Command {
	var (
		userID   string
		date     string
		validate string
	)
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Muestra o valida el código diario de un usuario",
		Example: "  despachoctl code --user u-1\n" +
			"  despachoctl code --user u-1 --date 2026-10-16 --validate 123456",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dailycode.New(e.cfg.DailyCode.Secret, e.cfg.DailyCode.Timezone, e.cfg.DailyCode.Digits)
			if err != nil {
				return err
			}
			at := time.Now()
			if date != "" {
				// mediodía local: el día no cambia por la conversión de zona
				d, err := time.ParseInLocation("2006-01-02", date, gen.Location())
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				at = d.Add(12 * time.Hour)
			}
			out := cmd.OutOrStdout()
			if validate != "" {
				if !gen.Validate(userID, validate, at) {
					return fmt.Errorf("código inválido para %s el %s", userID, gen.Day(at))
				}
				fmt.Fprintf(out, "código válido para %s el %s\n", userID, gen.Day(at))
				return nil
			}
			code, err := gen.Code(userID, at)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s %s\n", gen.Day(at), userID, code)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID del usuario")
	cmd.Flags().StringVar(&date, "date", "", "día AAAA-MM-DD en la zona de referencia (por defecto hoy)")
	cmd.Flags().StringVar(&validate, "validate", "", "código a validar en lugar de mostrarlo")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newTokenCmd(e *env) *cobra.Command {
	var (
		userID string
		unitID string
		role   string
		ttl    int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT firmado con JWT_SECRET para pruebas locales",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "" {
				return errors.New("--role es obligatorio")
			}
			exp := ttl
			if exp <= 0 {
				exp = e.cfg.JWT.Expiration
			}
			token, err := pkgjwt.Generate(e.cfg.JWT.Secret, userID, unitID, role, e.cfg.JWT.Issuer, exp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID del usuario")
	cmd.Flags().StringVar(&unitID, "unit", "", "unidad del usuario")
	cmd.Flags().StringVar(&role, "role", "", "rol: solicitante, bodeguero, conductor, controlador, disenador o admin")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "minutos de validez (por defecto JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
