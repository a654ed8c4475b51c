// Package naming infers texture roles from file names and finds the other
// maps of a texture set next to an anchor file.
//
// File names are read by a single-pass tokenizer with four token kinds:
// role keywords (diffuse, specular, roughness, transmission, sssColor, sss,
// bump, displacement, any case, compound keywords first), version tokens
// (v or V plus exactly two digits), UDIM tile tokens and literal text.
// [FindRelatedFiles] turns the anchor's tokens into an anchored template in
// which the role and version are wildcards and everything else, including
// the extension, is fixed.
package naming
