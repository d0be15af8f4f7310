package main

import "github.com/rpnahm/jobsched/cmd"

func main() {
	cmd.Execute()
}
