package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"rulingsafe/internal/app"
	"rulingsafe/internal/config"
	"rulingsafe/internal/rs"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the settings and creates an RSApp. The caller must defer app.Close().
func newApp() (*app.RSApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadOrDefault(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewRSApp(cfg, app.NewOSDesktop())
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// withApp runs fn against a fresh RSApp and closes it afterwards.
func withApp(fn func(a *app.RSApp) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// readPassphrase prompts on the terminal without echoing input.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

func formatTime(ts rs.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

var rootCmd = &cobra.Command{
	Use:          "rulingsafe",
	Short:        "Case files, documents and reference links for legal practice",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadOrDefault(defaults["config_path"], defaults["base_dir"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("State:       %s\n", cfg.StatePath)
		fmt.Printf("Journal:     %s %s\n", cfg.Journal.Type, cfg.Journal.DataDir)
		fmt.Printf("Encryption:  %s\n", cfg.Archive.Encryption)
		fmt.Printf("Public Key:  %s\n", cfg.Archive.PublicKeyPath)
		fmt.Printf("Private Key: %s\n", cfg.Archive.PrivateKeyPath)
		if len(cfg.Documents.Ignore) > 0 {
			fmt.Printf("Ignore:      %s\n", strings.Join(cfg.Documents.Ignore, ", "))
		}
		return nil
	},
}

// storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage the storage location",
}

var storageSetCmd = &cobra.Command{
	Use:   "set DIR",
	Short: "Store data under DIR/RulingSafe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			root, err := a.SetStorageRoot(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Storage root: %s\n", root)
			return nil
		})
	},
}

var storageShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the storage root",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			root, err := a.StorageRoot()
			if err != nil {
				return err
			}
			if root == "" {
				fmt.Println("No storage location set. Run 'rulingsafe storage set DIR'.")
				return nil
			}
			fmt.Println(root)
			return nil
		})
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Create a user and make them active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		first, _ := cmd.Flags().GetString("first")
		middle, _ := cmd.Flags().GetString("middle")
		last, _ := cmd.Flags().GetString("last")

		return withApp(func(a *app.RSApp) error {
			user, err := a.CreateUser(rs.CreateUserRequest{
				Username:   args[0],
				FirstName:  first,
				MiddleName: middle,
				LastName:   last,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s\n", user.Username)
			return nil
		})
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			users, err := a.ListUsers()
			if err != nil {
				return err
			}
			active, err := a.ActiveUser()
			if err != nil {
				return err
			}

			if len(users) == 0 {
				fmt.Println("No users.")
				return nil
			}
			for _, u := range users {
				marker := " "
				if u.Username == active {
					marker = "*"
				}
				fmt.Printf("%s %-20s  %-30s  %s\n", marker, u.Username, u.FullName(), formatTime(u.CreatedAt))
			}
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete a user and all of their cases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			if err := a.DeleteUser(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted user %s\n", args[0])
			return nil
		})
	},
}

var userUseCmd = &cobra.Command{
	Use:   "use USERNAME",
	Short: "Make USERNAME the active user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			registered, err := a.UseUser(args[0])
			if err != nil {
				return err
			}
			if !registered {
				fmt.Fprintf(os.Stderr, "Warning: %s is not a registered user\n", args[0])
			}
			fmt.Printf("Active user: %s\n", strings.TrimSpace(args[0]))
			return nil
		})
	},
}

var userWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			active, err := a.ActiveUser()
			if err != nil {
				return err
			}
			if active == "" {
				fmt.Println("No active user.")
				return nil
			}
			fmt.Println(active)
			return nil
		})
	},
}

var userLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the active user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			return a.Logout()
		})
	},
}

// case command
var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Manage cases of the active user",
}

// caseFlags are the editable case fields, shared by create and update.
var caseFlags = []struct {
	name, usage string
	set         func(req *rs.CaseRequest, v string)
}{
	{"no", "Case number", func(r *rs.CaseRequest, v string) { r.CaseNo = v }},
	{"name", "Case name", func(r *rs.CaseRequest, v string) { r.CaseName = v }},
	{"year", "Year", func(r *rs.CaseRequest, v string) { r.Year = v }},
	{"court", "Court", func(r *rs.CaseRequest, v string) { r.Court = v }},
	{"result", "Result", func(r *rs.CaseRequest, v string) { r.Result = v }},
	{"description", "Description", func(r *rs.CaseRequest, v string) { r.Description = v }},
}

// applyCaseFlags copies the flags given on the command line into req.
func applyCaseFlags(cmd *cobra.Command, req *rs.CaseRequest) {
	for _, f := range caseFlags {
		if cmd.Flags().Changed(f.name) {
			v, _ := cmd.Flags().GetString(f.name)
			f.set(req, v)
		}
	}
}

func printCase(c *rs.Case) {
	fmt.Printf("Key:          %s\n", c.Key)
	fmt.Printf("Case No:      %s\n", c.CaseNo)
	fmt.Printf("Name:         %s\n", c.CaseName)
	fmt.Printf("Year:         %s\n", c.Year)
	fmt.Printf("Court:        %s\n", c.Court)
	fmt.Printf("Result:       %s\n", c.Result)
	fmt.Printf("Description:  %s\n", c.Description)
	fmt.Printf("Created:      %s\n", formatTime(c.CreatedAt))
	fmt.Printf("Last Updated: %s\n", formatTime(c.LastUpdated))
}

var caseCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a case",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req rs.CaseRequest
		applyCaseFlags(cmd, &req)

		return withApp(func(a *app.RSApp) error {
			c, err := a.CreateCase(req)
			if err != nil {
				return err
			}
			fmt.Printf("Created case %s\n", c.Key)
			return nil
		})
	},
}

var caseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			cases, err := a.ListCases()
			if err != nil {
				return err
			}
			if len(cases) == 0 {
				fmt.Println("No cases.")
				return nil
			}
			for _, c := range cases {
				fmt.Printf("%-30s  %-12s  %-20s  %s\n", c.Key, c.CaseNo, c.Court, formatTime(c.LastUpdated))
			}
			return nil
		})
	},
}

var caseShowCmd = &cobra.Command{
	Use:   "show KEY",
	Short: "Show a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			c, err := a.GetCase(args[0])
			if err != nil {
				return err
			}
			printCase(c)
			return nil
		})
	},
}

var caseUpdateCmd = &cobra.Command{
	Use:   "update KEY",
	Short: "Change the fields of a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			c, err := a.UpdateCase(args[0], func(req *rs.CaseRequest) {
				applyCaseFlags(cmd, req)
			})
			if err != nil {
				return err
			}
			printCase(c)
			return nil
		})
	},
}

var caseDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete a case and its folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			if err := a.DeleteCase(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted case %s\n", args[0])
			return nil
		})
	},
}

var caseOpenCmd = &cobra.Command{
	Use:   "open KEY",
	Short: "Open the case folder in the file manager",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			return a.RevealCase(args[0])
		})
	},
}

var caseCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare case records with case folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			report, err := a.CheckCases()
			if err != nil {
				return err
			}
			if report.Clean() {
				fmt.Println("All cases have folders and all folders have cases.")
				return nil
			}
			for _, key := range report.FolderlessCases {
				fmt.Printf("missing folder  %s\n", key)
			}
			for _, name := range report.OrphanFolders {
				fmt.Printf("orphan folder   %s\n", name)
			}
			return nil
		})
	},
}

var caseExportCmd = &cobra.Command{
	Use:   "export KEY FILE",
	Short: "Write a case and its files to an archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			n, err := a.ExportCase(args[0], args[1])
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Printf("Exported %s with %d file(s) to %s\n", args[0], n, args[1])
			return nil
		})
	},
}

var caseImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Restore a case from an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			result, err := a.ImportCase(args[0], func() (string, error) {
				return readPassphrase("Passphrase: ")
			})
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Imported case %s with %d file(s)\n", result.Case.Key, result.Files)
			return nil
		})
	},
}

// link command
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage reference links of a case",
}

var linkAddCmd = &cobra.Command{
	Use:   "add KEY",
	Short: "Attach a link to a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		title, _ := cmd.Flags().GetString("title")
		platform, _ := cmd.Flags().GetString("platform")

		return withApp(func(a *app.RSApp) error {
			link, err := a.AddLink(args[0], rs.LinkRequest{Title: title, URL: url, Platform: platform})
			if err != nil {
				return err
			}
			fmt.Printf("Added link %s\n", link.ID)
			return nil
		})
	},
}

var linkListCmd = &cobra.Command{
	Use:   "list KEY",
	Short: "List the links of a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			links, err := a.ListLinks(args[0])
			if err != nil {
				return err
			}
			if len(links) == 0 {
				fmt.Println("No links.")
				return nil
			}
			for _, l := range links {
				fmt.Printf("%s  %-30s  %-12s  %s\n", l.ID, l.Title, l.Platform, l.URL)
			}
			return nil
		})
	},
}

var linkDeleteCmd = &cobra.Command{
	Use:   "delete KEY ID",
	Short: "Remove a link",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			removed, err := a.DeleteLink(args[0], args[1])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Printf("No link %s.\n", args[1])
				return nil
			}
			fmt.Printf("Deleted link %s\n", args[1])
			return nil
		})
	},
}

var linkOpenCmd = &cobra.Command{
	Use:   "open KEY ID",
	Short: "Open a link in the browser",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			return a.OpenLink(args[0], args[1])
		})
	},
}

// doc command
var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage documents of a case",
}

var docAddCmd = &cobra.Command{
	Use:   "add KEY FILE...",
	Short: "Copy files into a case",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			copied, err := a.AddDocuments(args[0], args[1:])
			for _, name := range copied {
				fmt.Printf("Added %s\n", name)
			}
			return err
		})
	},
}

var docListCmd = &cobra.Command{
	Use:   "list KEY",
	Short: "List the documents of a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			docs, err := a.ListDocuments(args[0])
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Println("No documents.")
				return nil
			}
			for _, d := range docs {
				fmt.Printf("%10d  %s  %s\n", d.Size, d.ModifiedAt.Local().Format("2006-01-02 15:04:05"), d.Name)
			}
			return nil
		})
	},
}

var docRemoveCmd = &cobra.Command{
	Use:   "remove KEY NAME",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			removed, err := a.RemoveDocument(args[0], args[1])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Printf("No document %s.\n", args[1])
				return nil
			}
			fmt.Printf("Removed %s\n", args[1])
			return nil
		})
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage archive encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the archive key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		return withApp(func(a *app.RSApp) error {
			if err := a.SetupKeys(pass); err != nil {
				return err
			}
			fmt.Println("Keys created. Set encryption = \"age\" under [archive] to encrypt exports.")
			return nil
		})
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withApp(func(a *app.RSApp) error {
			ops, err := a.History(limit)
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Println("No operations recorded.")
				return nil
			}

			for _, op := range ops {
				duration := ""
				if op.FinishedAt != nil {
					duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
				}
				fmt.Printf("#%d  %-13s  %s  %-10s  %-8s  %-10s  %s\n",
					op.ID,
					op.Name,
					op.StartedAt.Local().Format("2006-01-02 15:04:05"),
					op.Username,
					op.Status,
					duration,
					op.Parameters,
				)
			}
			return nil
		})
	},
}

// prefs command
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage UI preferences",
}

var prefsSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Set a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			return a.SetPreference(args[0], args[1])
		})
	},
}

var prefsGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.RSApp) error {
			v, ok, err := a.GetPreference(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("%s is not set.\n", args[0])
				return nil
			}
			fmt.Println(v)
			return nil
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// storage subcommands
	storageCmd.AddCommand(storageSetCmd)
	storageCmd.AddCommand(storageShowCmd)

	// user subcommands
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().String("first", "", "First name")
	userCreateCmd.Flags().String("middle", "", "Middle name")
	userCreateCmd.Flags().String("last", "", "Last name")
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userUseCmd)
	userCmd.AddCommand(userWhoamiCmd)
	userCmd.AddCommand(userLogoutCmd)

	// case subcommands
	for _, f := range caseFlags {
		caseCreateCmd.Flags().String(f.name, "", f.usage)
		caseUpdateCmd.Flags().String(f.name, "", f.usage)
	}
	caseCreateCmd.MarkFlagRequired("name")
	caseCreateCmd.MarkFlagRequired("year")
	caseCmd.AddCommand(caseCreateCmd)
	caseCmd.AddCommand(caseListCmd)
	caseCmd.AddCommand(caseShowCmd)
	caseCmd.AddCommand(caseUpdateCmd)
	caseCmd.AddCommand(caseDeleteCmd)
	caseCmd.AddCommand(caseOpenCmd)
	caseCmd.AddCommand(caseCheckCmd)
	caseCmd.AddCommand(caseExportCmd)
	caseCmd.AddCommand(caseImportCmd)

	// link subcommands
	linkAddCmd.Flags().String("url", "", "Link URL")
	linkAddCmd.Flags().String("title", "", "Link title")
	linkAddCmd.Flags().String("platform", "", "Platform the link points to")
	linkAddCmd.MarkFlagRequired("url")
	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkDeleteCmd)
	linkCmd.AddCommand(linkOpenCmd)

	// doc subcommands
	docCmd.AddCommand(docAddCmd)
	docCmd.AddCommand(docListCmd)
	docCmd.AddCommand(docRemoveCmd)

	keysCmd.AddCommand(keysInitCmd)

	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsGetCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(prefsCmd)
}
