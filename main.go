package main

import "github/chapool/wallet-txengine/cmd"

func main() {
	cmd.Execute()
}
