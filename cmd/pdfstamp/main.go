// Command pdfstamp places image and text signatures on PDF documents.
package main

import "github.com/digitorus/pdfstamp/cli"

func main() {
	cli.Execute()
}
