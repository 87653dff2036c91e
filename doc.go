/*
Package weft keeps generated text woven into the files that need it.

A weft document is any text file containing marked regions of Lua generator
code. The engine finds each region, runs its code, and splices the output
back into the file between the end-of-code and end-of-output markers,
replacing whatever the previous run left there:

	//[[[weft
	//for _, name in ipairs({"alpha", "beta"}) do
	//  weft.outl("const " .. name .. " = true")
	//end
	//]]]
	const alpha = true
	const beta = true
	//[[[end]]]

Running the engine again regenerates the middle region and leaves the rest
of the file alone, so derived text stays synchronized with the small script
that produces it, without a separate build step.

# Usage

The Engine is configured with Options and fed the same arguments the weft
command accepts:

	eng, err := weft.New(weft.Options{
		Markers:   scan.Default(),
		Replace:   true,
		Verbosity: 1,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := eng.Run([]string{"src/table.go"}); err != nil {
		os.Exit(weft.ExitCode(err))
	}

Generator code sees a host table named weft with an output sink (weft.out,
weft.outl), a diagnostic channel (weft.msg, weft.error), and read-only
attributes (weft.inputPath, weft.outputPath, weft.firstLineNumber,
weft.previous). Globals defined in one region are visible to later regions
of the same document and never to other documents.

Output regions can be protected with checksums (Options.Checksum): a digest
annotation on the end-of-output marker detects hand edits before they would
be silently overwritten.
*/
package weft
