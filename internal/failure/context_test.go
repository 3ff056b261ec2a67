package failure_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
)

type resolveError struct{ module string }

func (e *resolveError) Error() string    { return "could not resolve " + e.module }
func (e *resolveError) Location() string { return e.module }

var _ = Describe("Derive", func() {
	It("keeps every field that is present", func() {
		c := failure.Derive(&failure.Failure{Message: "boom", Stack: "at main.go:3", ID: "src/main.ts", Name: "RollupError"})
		Expect(c).To(Equal(failure.Context{
			Message:  "boom",
			Stack:    "at main.go:3",
			Location: "src/main.ts",
			Name:     "RollupError",
		}))
	})

	DescribeTable("substitutes placeholders for missing fields",
		func(f *failure.Failure, want failure.Context) {
			Expect(failure.Derive(f)).To(Equal(want))
		},
		Entry("message only", &failure.Failure{Message: "boom"},
			failure.Context{Message: "boom", Stack: failure.UnknownStack, Location: failure.UnknownLocation, Name: failure.DefaultName}),
		Entry("blank stack and id", &failure.Failure{Message: "boom", Stack: "  \n", ID: ""},
			failure.Context{Message: "boom", Stack: failure.UnknownStack, Location: failure.UnknownLocation, Name: failure.DefaultName}),
		Entry("empty failure", &failure.Failure{},
			failure.Context{Message: failure.UnknownMessage, Stack: failure.UnknownStack, Location: failure.UnknownLocation, Name: failure.DefaultName}),
		Entry("nil failure", nil,
			failure.Context{Message: failure.UnknownMessage, Stack: failure.UnknownStack, Location: failure.UnknownLocation, Name: failure.DefaultName}),
	)
})

var _ = Describe("FromError", func() {
	It("returns nil for a nil error", func() {
		Expect(failure.FromError(nil)).To(BeNil())
	})

	It("picks up the location of a located error, even when wrapped", func() {
		err := fmt.Errorf("build: %w", &resolveError{module: "./non-existent-file"})
		f := failure.FromError(err)
		Expect(f.Message).To(Equal("build: could not resolve ./non-existent-file"))
		Expect(f.ID).To(Equal("./non-existent-file"))
		Expect(f.Name).To(Equal("*fmt.wrapError"))
	})

	It("leaves the location empty for plain errors", func() {
		f := failure.FromError(errors.New("plain"))
		Expect(f.ID).To(BeEmpty())
		Expect(failure.Derive(f).Location).To(Equal(failure.UnknownLocation))
	})
})
