package model

// Version is the pbuilder release, compared against GitHub tags by --update.
const Version = "0.4.0"
