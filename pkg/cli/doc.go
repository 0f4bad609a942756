/*
Package cli provides the helpers shared by the switchboard commands.

Output Formatting:

Commands print either aligned text tables or indented JSON:

	f, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return f.FormatTo(cmd.OutOrStdout(), routes)

Values that implement Table are rendered as columns in text mode; anything
else is printed with %v.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
