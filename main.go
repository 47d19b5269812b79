package main

import "github.com/felo/smtpview/cmd"

func main() {
	cmd.Execute()
}
