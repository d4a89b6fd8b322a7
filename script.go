package hxpage

import "strings"

// scriptBuilder writes one guarded binding statement per entry:
//
//	/* entry aB3x */(function(){var el=document.getElementById("id");if(!el){return;}el.addEventListener("click",(
//	<handler source>
//	));})();
//
// The element may have been replaced by a later render before the script
// runs, so a failed lookup skips the statement.
type scriptBuilder struct {
	sb strings.Builder
}

func (b *scriptBuilder) bind(e *Entry, handlerSrc string) {
	b.sb.WriteString("/* entry ")
	b.sb.WriteString(e.Name)
	b.sb.WriteString(" */(function(){var el=document.getElementById(")
	b.sb.WriteString(jsString(e.ElementID))
	b.sb.WriteString(");if(!el){return;}el.addEventListener(")
	b.sb.WriteString(jsString(e.EventName))
	// Newlines keep a trailing line comment in the handler from swallowing
	// the closing parenthesis.
	b.sb.WriteString(",(\n")
	b.sb.WriteString(handlerSrc)
	b.sb.WriteString("\n));})();\n")
}

func (b *scriptBuilder) String() string {
	return b.sb.String()
}

// dispatchStub is the client handler bound for a server-side Func handler.
func dispatchStub(token string) string {
	return "function(e){if(window.hxpage){window.hxpage.dispatch(" + jsString(token) + ",e);}}"
}
