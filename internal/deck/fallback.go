package deck

import "fmt"

// FallbackOutline is used when the model cannot produce a usable outline.
func FallbackOutline(topic string) Outline {
	return Outline{
		fmt.Sprintf("Introduction to %s", topic),
		"Key Concepts",
		"Main Applications",
		"Benefits and Advantages",
		"Challenges and Solutions",
		"Future Outlook",
		"Conclusion and Summary",
	}
}

// FallbackSlide is used when slide content generation fails. The caller
// attaches the image.
func FallbackSlide(topic, title string) Slide {
	return Slide{
		Title: title,
		Content: FormatBullets([]string{
			fmt.Sprintf("Key aspects of %s", topic),
			"Important considerations",
			"Benefits and applications",
			"Current developments",
			"Future implications",
		}),
	}
}

// Critique texts used when the critique or refine step fails.
const (
	CritiqueNoIssues       = "No issues found."
	CritiqueRefinementDone = "Refinement completed"
	CritiqueNotProvided    = "No critique provided"
)
