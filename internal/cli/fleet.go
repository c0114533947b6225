package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fleetwatch/go-fleet-client/internal/utils"
	"github.com/fleetwatch/go-fleet-client/vehicles"
)

var vehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "Vehicle operations",
}

var vehiclesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vehicles",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.vehicles.List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, v := range list {
			rows = append(rows, []string{
				statusBadge(string(v.Status)),
				v.ID,
				v.Name,
				v.PlateNumber,
				v.Model,
				strconv.Itoa(v.Capacity),
				utils.Value(v.DriverID),
			})
		}
		renderTable(cmd.OutOrStdout(), []string{"", "ID", "Name", "Plate", "Model", "Capacity", "Driver"}, rows)
		return nil
	},
}

var vehiclesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := app.vehicles.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rows := [][]string{
			{"ID", v.ID},
			{"Name", v.Name},
			{"Plate", v.PlateNumber},
			{"Model", v.Model},
			{"Capacity", strconv.Itoa(v.Capacity)},
			{"Status", string(v.Status)},
		}
		if v.Location != nil {
			rows = append(rows, []string{"Location", formatLatLng(v.Location.Latitude, v.Location.Longitude)})
		}
		renderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, rows)
		return nil
	},
}

var vehiclesStatusCmd = &cobra.Command{
	Use:   "status <id> <active|inactive|maintenance>",
	Short: "Update a vehicle's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.vehicles.UpdateStatus(cmd.Context(), args[0], vehicles.Status(args[1])); err != nil {
			return err
		}
		successf("vehicle %s is now %s", args[0], args[1])
		return nil
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Route operations",
}

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.routes.List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, r := range list {
			rows = append(rows, []string{
				statusBadge(string(r.Status)),
				r.ID,
				r.Name,
				utils.Value(r.VehicleID),
				utils.Value(r.DriverID),
			})
		}
		renderTable(cmd.OutOrStdout(), []string{"", "ID", "Name", "Vehicle", "Driver"}, rows)
		return nil
	},
}

var routesPositionsCmd = &cobra.Command{
	Use:   "positions <id>",
	Short: "Show a route's recorded tracking trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		positions, err := app.routes.Positions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(positions))
		for _, p := range positions {
			rows = append(rows, []string{
				p.RecordedAt.Format("2006-01-02 15:04:05"),
				formatLatLng(p.Latitude, p.Longitude),
				strconv.FormatFloat(p.Speed, 'f', 1, 64),
			})
		}
		renderTable(cmd.OutOrStdout(), []string{"Recorded", "Position", "Speed"}, rows)
		return nil
	},
}

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Driver operations",
}

var driversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drivers",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.drivers.List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, d := range list {
			rows = append(rows, []string{
				d.ID,
				d.FirstName + " " + d.LastName,
				d.Phone,
				d.LicenseNumber,
				utils.Value(d.VehicleID),
				boolLabel(d.IsActive),
			})
		}
		renderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Phone", "License", "Vehicle", "Active"}, rows)
		return nil
	},
}

var driversAssignCmd = &cobra.Command{
	Use:   "assign <driver-id> <vehicle-id>",
	Short: "Assign a vehicle to a driver",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.drivers.AssignVehicle(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		successf("assigned vehicle %s to driver %s", args[1], args[0])
		return nil
	},
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Show the users managed by the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		members, err := app.team.MyTeam(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(members))
		for _, m := range members {
			rows = append(rows, []string{
				m.ID,
				m.FirstName + " " + m.LastName,
				m.UserName,
				string(m.Role),
				boolLabel(utils.Value(m.IsActive)),
			})
		}
		renderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Username", "Role", "Active"}, rows)
		return nil
	},
}

func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + ", " + strconv.FormatFloat(lng, 'f', 6, 64)
}

func init() {
	vehiclesCmd.AddCommand(vehiclesListCmd, vehiclesGetCmd, vehiclesStatusCmd)
	routesCmd.AddCommand(routesListCmd, routesPositionsCmd)
	driversCmd.AddCommand(driversListCmd, driversAssignCmd)
	rootCmd.AddCommand(vehiclesCmd, routesCmd, driversCmd, teamCmd)
}
