/*
Package cli provides command-line helpers shared by the waybill command.

Output Formatting:

Results print as text, JSON or YAML:

	formatter := cli.NewFormatter(cli.FormatYAML)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress:

	fmt.Println(cli.ProgressBar(p.Percentage))

Exit Codes:

Commands that complete but should fail a script return *ExitError; the entry
point exits with its Code.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
