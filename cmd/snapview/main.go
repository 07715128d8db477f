// Command snapview loads a document and shows the capture of one of its
// elements next to the rendered page.
//
//	snapview [file-or-url] [root-selector]
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"domsnap/pkg/page"
	"domsnap/pkg/snapshot"
)

const captureTimeout = 30 * time.Second

// view is the result of one load-and-capture round.
type view struct {
	page, capture image.Image
	status        string
}

func main() {
	a := app.New()
	w := a.NewWindow("snapview")
	w.Resize(fyne.NewSize(1200, 800))

	blank := image.NewRGBA(image.Rect(0, 0, 1, 1))
	pageImg := canvas.NewImageFromImage(blank)
	pageImg.FillMode = canvas.ImageFillContain
	captureImg := canvas.NewImageFromImage(blank)
	captureImg.FillMode = canvas.ImageFillContain

	status := widget.NewLabel("Enter a file or URL and a root selector")

	input := widget.NewEntry()
	input.SetPlaceHolder("page.html or https://example.com")
	root := widget.NewEntry()
	root.SetPlaceHolder("#root")

	load := func() {
		src, sel := input.Text, root.Text
		status.SetText("Loading " + src + "...")
		go func() {
			v := capture(src, sel)
			fyne.Do(func() {
				if v.page != nil {
					pageImg.Image = v.page
					pageImg.Refresh()
				}
				if v.capture != nil {
					captureImg.Image = v.capture
					captureImg.Refresh()
				}
				status.SetText(v.status)
				w.SetTitle(fmt.Sprintf("snapview: %s %s", src, sel))
			})
		}()
	}
	input.OnSubmitted = func(string) { load() }
	root.OnSubmitted = func(string) { load() }

	if len(os.Args) > 1 {
		input.SetText(os.Args[1])
	}
	if len(os.Args) > 2 {
		root.SetText(os.Args[2])
	}

	bar := container.NewGridWithColumns(3, input, root, widget.NewButton("Capture", load))
	split := container.NewHSplit(
		container.NewBorder(widget.NewLabel("Page"), nil, nil, nil, pageImg),
		container.NewBorder(widget.NewLabel("Capture"), nil, nil, nil, captureImg),
	)
	w.SetContent(container.NewBorder(bar, status, nil, nil, split))
	w.Canvas().Focus(input)

	if input.Text != "" && root.Text != "" {
		load()
	}
	w.ShowAndRun()
}

func capture(src, root string) view {
	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	p, err := page.Load(ctx, src)
	if err != nil {
		return view{status: "Error: " + err.Error()}
	}
	if err := p.WaitForImages(ctx); err != nil {
		return view{status: "Error: " + err.Error()}
	}
	v := view{page: p.Render(1)}
	if root == "" {
		v.status = src
		return v
	}
	c, err := p.Snapshot(snapshot.Config{Root: root}).ToCanvas(ctx)
	if err != nil {
		v.status = "Capture error: " + err.Error()
		return v
	}
	v.capture = c.Bitmap()
	v.status = fmt.Sprintf("%s: %dx%d device pixels", root, c.Width(), c.Height())
	return v
}
