package main

import "github.com/Gonosen60/gestion-conges-app/cli"

func main() {
	cli.Execute()
}
