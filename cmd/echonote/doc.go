// Command echonote manages voice note pipelines: creating registry notes,
// running the transcribe/revise/summarize/analyze stages over a namespace,
// and inspecting results.
package main
